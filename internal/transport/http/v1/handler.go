// Package v1 serves the native session and chat API.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/gateway/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the native API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	// Session API
	e.POST("/api/sessions", h.CreateSession)
	e.GET("/api/sessions", h.ListSessions)
	e.GET("/api/sessions/:session_id/messages", h.GetSessionMessages)
	e.DELETE("/api/sessions/:session_id", h.DeleteSession)
	e.PATCH("/api/sessions/:session_id", h.RenameSession)

	// Chat API
	e.POST("/api/chat", h.Chat)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
