package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// Chat handles POST /api/chat.
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Chat(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
