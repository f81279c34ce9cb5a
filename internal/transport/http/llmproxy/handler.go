// Package llmproxy serves the OpenAI-compatible chat-completions API.
package llmproxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/openai"
	"github.com/xiaot623/gogo/gateway/internal/service"
)

// Handler handles OpenAI-compatible HTTP requests.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

// NewHandler creates a new OpenAI-compatible handler.
func NewHandler(service *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers OpenAI-compatible routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat/completions", h.ChatCompletions)
	e.GET("/v1/models", h.ListModels)
}

// ChatCompletions handles chat completion requests.
// POST /v1/chat/completions
func (h *Handler) ChatCompletions(c echo.Context) error {
	var req openai.ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, openai.NewError(openai.ErrorTypeInvalidRequest, "invalid request body"))
	}

	if len(req.Messages) == 0 {
		return c.JSON(http.StatusBadRequest, openai.ErrorResponse{
			Error: &openai.APIError{
				Message: "messages is required",
				Type:    openai.ErrorTypeInvalidRequest,
				Param:   "messages",
			},
		})
	}

	// The whole turn completes before anything is written, so failures
	// still get a proper status code on the streaming path.
	result, err := h.service.Complete(c.Request().Context(), &req)
	if err != nil {
		return h.writeError(c, err)
	}

	if req.Stream {
		return h.writeStream(c, result)
	}
	return c.JSON(http.StatusOK, openai.NewCompletion(result.Model, result.Prompt, result.Text))
}

// writeStream replays a finished result as server-sent events.
func (h *Handler) writeStream(c echo.Context, result *domain.CompletionResult) error {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, openai.NewError(openai.ErrorTypeServer, "streaming not supported"))
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	for chunk := range openai.StreamChunks(result.Model, result.Text) {
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
			// Can't change status code after writing response
			h.logger.Warn("stream write failed", "error", err)
			return nil
		}
		flusher.Flush()
	}

	fmt.Fprintf(c.Response().Writer, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

// writeError maps a service error onto an OpenAI error object.
func (h *Handler) writeError(c echo.Context, err error) error {
	var invErr *domain.InvocationError
	var policyErr *domain.PolicyError

	switch {
	case errors.Is(err, domain.ErrMessagesRequired):
		return c.JSON(http.StatusBadRequest, openai.ErrorResponse{
			Error: &openai.APIError{
				Message: err.Error(),
				Type:    openai.ErrorTypeInvalidRequest,
				Param:   "messages",
			},
		})
	case errors.Is(err, domain.ErrEmptyPrompt):
		return c.JSON(http.StatusBadRequest, openai.NewError(openai.ErrorTypeInvalidRequest, err.Error()))
	case errors.As(err, &policyErr):
		return c.JSON(http.StatusBadRequest, openai.ErrorResponse{
			Error: &openai.APIError{
				Message: policyErr.Error(),
				Type:    openai.ErrorTypeInvalidRequest,
				Code:    "policy_blocked",
			},
		})
	case errors.As(err, &invErr):
		if invErr.IsAuth() {
			return c.JSON(http.StatusUnauthorized, openai.NewError(openai.ErrorTypeAuthentication, invErr.Message))
		}
		return c.JSON(http.StatusInternalServerError, openai.NewError(openai.ErrorTypeServer, invErr.Message))
	default:
		h.logger.Error("chat completion failed", "error", err)
		return c.JSON(http.StatusInternalServerError, openai.NewError(openai.ErrorTypeServer, "internal error"))
	}
}

// ListModels handles the models list request.
// GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, openai.ModelsResponse{
		Object: "list",
		Data:   h.service.ListModels(c.Request().Context()),
	})
}
