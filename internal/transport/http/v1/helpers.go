package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, domain.ChatErrorResponse{Error: message})
}

// writeError maps a service error onto the native API status codes.
func (h *Handler) writeError(c echo.Context, err error) error {
	var invErr *domain.InvocationError
	var policyErr *domain.PolicyError

	switch {
	case errors.Is(err, domain.ErrPromptRequired),
		errors.Is(err, domain.ErrNameRequired):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.As(err, &policyErr):
		return errorJSON(c, http.StatusBadRequest, policyErr.Error())
	case errors.As(err, &invErr):
		if invErr.IsAuth() {
			return errorJSON(c, http.StatusUnauthorized, invErr.Message)
		}
		exitCode := invErr.ExitCode
		return c.JSON(http.StatusBadGateway, domain.ChatErrorResponse{
			Error:    invErr.Message,
			ExitCode: &exitCode,
		})
	default:
		h.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}
