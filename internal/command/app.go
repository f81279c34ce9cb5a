// Package command builds the gateway command line.
package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/xiaot623/gogo/gateway/internal/config"
)

type Deps struct {
	LoadConfig func(path string) (*config.Config, error)
	Serve      func(context.Context, *config.Config) error
	In         io.Reader
	Out        io.Writer
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file",
			EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "HTTP listen port (overrides PORT)",
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "answer with the mock agent instead of spawning processes",
		},
	}
}

func BuildApp(deps Deps) *cli.App {
	serve := func(ctx *cli.Context) error {
		cfg, err := loadConfig(deps, ctx)
		if err != nil {
			return err
		}
		return runServe(ctx.Context, deps, cfg)
	}

	return &cli.App{
		Name:   "gateway",
		Usage:  "HTTP gateway for an agent command-line tool",
		Flags:  configFlags(),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Flags:  configFlags(),
				Action: serve,
			},
			{
				Name:  "config",
				Usage: "print the effective configuration",
				Flags: configFlags(),
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(deps, ctx)
					if err != nil {
						return err
					}
					return printConfig(deps, cfg)
				},
			},
			{
				Name:  "chat",
				Usage: "chat with a running gateway over its WebSocket endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: "ws://localhost:3000/api/ws",
						Usage: "WebSocket endpoint of the gateway",
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "session id to continue",
					},
				},
				Action: func(ctx *cli.Context) error {
					in := deps.In
					if in == nil {
						in = os.Stdin
					}
					return runChat(ctx.Context, ctx.String("addr"), ctx.String("session"), in, output(deps))
				},
			},
		},
	}
}

func loadConfig(deps Deps, ctx *cli.Context) (*config.Config, error) {
	load := deps.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("port") {
		cfg.Port = ctx.Int("port")
	}
	if ctx.Bool("mock") {
		cfg.Mode = "MOCK"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, deps Deps, cfg *config.Config) error {
	if deps.Serve != nil {
		return deps.Serve(ctx, cfg)
	}
	return Serve(ctx, cfg)
}

func output(deps Deps) io.Writer {
	if deps.Out != nil {
		return deps.Out
	}
	return os.Stdout
}

func printConfig(deps Deps, cfg *config.Config) error {
	out := output(deps)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
