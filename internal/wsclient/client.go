// Package wsclient is a client for the gateway WebSocket chat endpoint.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/gateway/internal/transport/ws"
)

// ChatError is a failed turn reported by the gateway.
type ChatError struct {
	Status   int
	Message  string
	ExitCode *int
}

func (e *ChatError) Error() string {
	if e.ExitCode != nil {
		return fmt.Sprintf("chat failed (%d, exit code %d): %s", e.Status, *e.ExitCode, e.Message)
	}
	return fmt.Sprintf("chat failed (%d): %s", e.Status, e.Message)
}

// Client represents a WebSocket client bound to one session.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	seq       int
}

// Dial connects to the gateway. sessionID may be empty, in which case the
// gateway assigns one on the first turn.
func Dial(ctx context.Context, addr, sessionID string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn, sessionID: sessionID}, nil
}

// SessionID returns the session the client is bound to.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// Chat sends one prompt and waits for its result.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	c.seq++
	requestID := fmt.Sprintf("req_%d", c.seq)

	if err := c.write(ctx, ws.ClientFrame{
		Type:      ws.TypeChat,
		RequestID: requestID,
		SessionID: c.sessionID,
		Prompt:    prompt,
	}); err != nil {
		return "", err
	}

	for {
		data, err := c.read(ctx)
		if err != nil {
			return "", err
		}

		var frame struct {
			ws.ErrorFrame
			SessionID string `json:"sessionId"`
			Result    string `json:"result"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return "", fmt.Errorf("unmarshal frame: %w", err)
		}
		if frame.RequestID != "" && frame.RequestID != requestID {
			continue
		}

		switch frame.Type {
		case ws.TypeResult:
			c.sessionID = frame.SessionID
			return frame.Result, nil
		case ws.TypeError:
			return "", &ChatError{Status: frame.Status, Message: frame.Error, ExitCode: frame.ExitCode}
		}
	}
}

// Ping checks that the gateway answers on the connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.write(ctx, ws.ClientFrame{Type: ws.TypePing}); err != nil {
		return err
	}
	for {
		data, err := c.read(ctx)
		if err != nil {
			return err
		}
		var base ws.PongFrame
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("unmarshal frame: %w", err)
		}
		if base.Type == ws.TypePong {
			return nil
		}
	}
}

func (c *Client) write(ctx context.Context, v interface{}) error {
	deadline, _ := ctx.Deadline()
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Client) read(ctx context.Context) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	c.conn.SetReadDeadline(deadline)
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return data, nil
}
