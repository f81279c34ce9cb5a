// Package service implements the gateway operations shared by every API surface.
package service

import (
	"log/slog"

	"github.com/xiaot623/gogo/gateway/internal/adapter/agentcli"
	"github.com/xiaot623/gogo/gateway/internal/config"
	"github.com/xiaot623/gogo/gateway/internal/policy"
	"github.com/xiaot623/gogo/gateway/internal/repository"
)

type Service struct {
	store        repository.Store
	runner       agentcli.Runner
	policyEngine *policy.Engine
	config       *config.Config
	logger       *slog.Logger
}

// New wires a Service. policyEngine may be nil, in which case every turn is allowed.
func New(store repository.Store, runner agentcli.Runner, policyEngine *policy.Engine, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		runner:       runner,
		policyEngine: policyEngine,
		config:       cfg,
		logger:       logger,
	}
}
