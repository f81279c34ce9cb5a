// Package http provides the HTTP server implementation for the gateway.
package http

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/gateway/internal/config"
	"github.com/xiaot623/gogo/gateway/internal/service"
	"github.com/xiaot623/gogo/gateway/internal/transport/http/llmproxy"
	v1 "github.com/xiaot623/gogo/gateway/internal/transport/http/v1"
	"github.com/xiaot623/gogo/gateway/internal/transport/ws"
)

// NewServer creates and configures the HTTP server carrying the native API,
// the OpenAI-compatible API and the WebSocket chat endpoint.
func NewServer(svc *service.Service, cfg *config.Config, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc, logger)
	llmHandler := llmproxy.NewHandler(svc, logger)
	wsServer := ws.NewServer(svc, cfg.WS, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	llmHandler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}
