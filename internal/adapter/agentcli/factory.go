package agentcli

import (
	"log/slog"
	"strings"
)

// ModeMock selects the mock runner.
const ModeMock = "MOCK"

// NewRunner creates a Runner for the configured gateway mode.
// Mode MOCK returns a MockClient; anything else returns a real Client.
func NewRunner(mode string, opts Options) Runner {
	if strings.EqualFold(mode, ModeMock) {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("GATEWAY_MODE=MOCK detected, using mock agent runner")
		return NewMockClient()
	}
	return NewClient(opts)
}
