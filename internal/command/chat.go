package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xiaot623/gogo/gateway/internal/wsclient"
)

// runChat is an interactive prompt loop against a running gateway.
func runChat(ctx context.Context, addr, sessionID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Connecting to %s...\n", addr)

	client, err := wsclient.Dial(ctx, addr, sessionID)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("gateway did not answer: %w", err)
	}

	fmt.Fprintln(out, "Connected. Type a message and press Enter to send.")
	fmt.Fprintln(out, "Commands: /session to show the session id, /quit to exit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/session":
			fmt.Fprintf(out, "session: %s\n", client.SessionID())
			continue
		}

		result, err := client.Chat(ctx, input)
		var chatErr *wsclient.ChatError
		if errors.As(err, &chatErr) {
			fmt.Fprintf(out, "error: %v\n", chatErr)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result)
	}
}
