package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/xiaot623/gogo/gateway/internal/adapter/agentcli"
	"github.com/xiaot623/gogo/gateway/internal/config"
	"github.com/xiaot623/gogo/gateway/internal/logging"
	"github.com/xiaot623/gogo/gateway/internal/policy"
	"github.com/xiaot623/gogo/gateway/internal/repository"
	"github.com/xiaot623/gogo/gateway/internal/service"
	server "github.com/xiaot623/gogo/gateway/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the gateway until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config) error {
	newLogger := func(component string) *slog.Logger {
		return logging.NewLogger(logging.Options{Level: cfg.LogLevel, Writer: os.Stderr, Component: component})
	}
	logger := newLogger(logging.DefaultComponent)
	slog.SetDefault(logger)

	logger.Info("starting gateway",
		"port", cfg.Port,
		"model", cfg.ModelName,
		"agent_command", cfg.Agent.Command,
		"session_store", cfg.SessionStore,
		"mode", cfg.Mode)

	// Initialize store
	store, err := NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	// Initialize agent runner
	runner := agentcli.NewRunner(cfg.Mode, agentcli.Options{
		Command:    cfg.Agent.Command,
		BaseArgs:   cfg.Agent.Args,
		ResumeFlag: cfg.Agent.ResumeFlag,
		WorkDir:    cfg.Agent.WorkDir,
		Env:        cfg.Agent.Env,
		Timeout:    cfg.Agent.Timeout(),
		Logger:     newLogger("agentcli"),
	})

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Initialize service
	svc := service.New(store, runner, policyEngine, cfg, newLogger("service"))

	e := server.NewServer(svc, cfg, newLogger("http"))

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info("gateway listening", "port", cfg.Port)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", "error", err)
	}
	logger.Info("gateway stopped")
	return nil
}

// NewStore opens the configured session store.
func NewStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.SessionStore {
	case config.StoreSQLite:
		store, err := repository.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory, "":
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
