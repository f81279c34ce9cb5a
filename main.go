package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaot623/gogo/gateway/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{})
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}
