package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(c echo.Context) error {
	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.CreateSession(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	return c.JSON(http.StatusOK, sessions)
}

// GetSessionMessages handles GET /api/sessions/:session_id/messages.
func (h *Handler) GetSessionMessages(c echo.Context) error {
	messages, err := h.service.GetSessionMessages(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// DeleteSession handles DELETE /api/sessions/:session_id.
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.service.DeleteSession(c.Request().Context(), c.Param("session_id")); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, domain.OKResponse{OK: true})
}

// RenameSession handles PATCH /api/sessions/:session_id.
func (h *Handler) RenameSession(c echo.Context) error {
	var req domain.RenameSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.RenameSession(c.Request().Context(), c.Param("session_id"), req.Name); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, domain.OKResponse{OK: true})
}
