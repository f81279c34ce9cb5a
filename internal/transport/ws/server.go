// Package ws serves chat turns over a WebSocket connection.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/gateway/internal/config"
	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/service"
)

// maxQueuedTurns bounds the chat frames waiting on one connection.
const maxQueuedTurns = 16

// Server handles WebSocket connections.
type Server struct {
	service  *service.Service
	cfg      config.WSConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(svc *service.Service, cfg config.WSConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service: svc,
		cfg:     cfg,
		logger:  logger.With("transport", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ws", s.HandleWebSocket)
}

// connection is one client socket. Turns are run one at a time in arrival order.
type connection struct {
	ws    *websocket.Conn
	send  chan []byte
	turns chan ClientFrame
	done  chan struct{}
	once  sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// enqueue hands a frame to the writer, dropping it once the connection is gone.
func (c *connection) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", "error", err)
		return err
	}

	conn := &connection{
		ws:    ws,
		send:  make(chan []byte, 16),
		turns: make(chan ClientFrame, maxQueuedTurns),
		done:  make(chan struct{}),
	}
	if s.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(s.cfg.MaxMessageSize)
	}

	go s.writePump(conn)
	go s.turnLoop(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads frames from the WebSocket connection.
func (s *Server) readPump(conn *connection) {
	defer func() {
		close(conn.turns)
		conn.close()
	}()

	if pongWait := s.pongWait(); pongWait > 0 {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		conn.ws.SetPongHandler(func(string) error {
			conn.ws.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
	}

	for {
		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		s.handleFrame(conn, message)
	}
}

// writePump writes frames and keepalive pings to the WebSocket connection.
func (s *Server) writePump(conn *connection) {
	var tick <-chan time.Time
	if interval := s.cfg.PingInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer conn.close()

	for {
		select {
		case message := <-conn.send:
			s.setWriteDeadline(conn)
			if err := conn.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("failed to write message", "error", err)
				return
			}

		case <-tick:
			s.setWriteDeadline(conn)
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-conn.done:
			s.setWriteDeadline(conn)
			conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// turnLoop runs queued chat turns sequentially. Turns still queued when the
// client disconnects are skipped; a turn already running completes.
func (s *Server) turnLoop(conn *connection) {
	for frame := range conn.turns {
		select {
		case <-conn.done:
			continue
		default:
		}

		result, err := s.service.ChatWebSocket(context.Background(), domain.ChatRequest{
			Prompt:    frame.Prompt,
			SessionID: frame.SessionID,
		})
		if err != nil {
			s.sendJSON(conn, errorFrame(frame.RequestID, err))
			continue
		}
		s.sendJSON(conn, ResultFrame{
			Type:      TypeResult,
			RequestID: frame.RequestID,
			SessionID: result.SessionID,
			Result:    result.Result,
		})
	}
}

// handleFrame dispatches an incoming frame.
func (s *Server) handleFrame(conn *connection, data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendJSON(conn, ErrorFrame{Type: TypeError, Status: http.StatusBadRequest, Error: "invalid JSON message"})
		return
	}

	switch frame.Type {
	case TypePing:
		s.sendJSON(conn, PongFrame{Type: TypePong})
	case TypeChat:
		select {
		case conn.turns <- frame:
		default:
			s.sendJSON(conn, ErrorFrame{
				Type:      TypeError,
				RequestID: frame.RequestID,
				Status:    http.StatusTooManyRequests,
				Error:     "too many queued turns",
			})
		}
	default:
		s.sendJSON(conn, ErrorFrame{
			Type:      TypeError,
			RequestID: frame.RequestID,
			Status:    http.StatusBadRequest,
			Error:     "unknown message type: " + frame.Type,
		})
	}
}

func (s *Server) sendJSON(conn *connection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode frame", "error", err)
		return
	}
	conn.enqueue(data)
}

func (s *Server) setWriteDeadline(conn *connection) {
	if timeout := s.cfg.WriteTimeout(); timeout > 0 {
		conn.ws.SetWriteDeadline(time.Now().Add(timeout))
	}
}

// pongWait is how long a silent client is tolerated.
func (s *Server) pongWait() time.Duration {
	return 2 * s.cfg.PingInterval()
}

// errorFrame maps a chat error onto the statuses of the HTTP chat API.
func errorFrame(requestID string, err error) ErrorFrame {
	frame := ErrorFrame{Type: TypeError, RequestID: requestID}

	var invErr *domain.InvocationError
	var policyErr *domain.PolicyError
	switch {
	case errors.Is(err, domain.ErrPromptRequired):
		frame.Status = http.StatusBadRequest
		frame.Error = err.Error()
	case errors.As(err, &policyErr):
		frame.Status = http.StatusBadRequest
		frame.Error = policyErr.Error()
	case errors.As(err, &invErr):
		frame.Error = invErr.Message
		if invErr.IsAuth() {
			frame.Status = http.StatusUnauthorized
		} else {
			exitCode := invErr.ExitCode
			frame.Status = http.StatusBadGateway
			frame.ExitCode = &exitCode
		}
	default:
		frame.Status = http.StatusInternalServerError
		frame.Error = "internal error"
	}
	return frame
}
