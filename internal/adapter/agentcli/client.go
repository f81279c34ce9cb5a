package agentcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// waitDelay bounds how long a timed-out invocation waits for its output pipes.
const waitDelay = time.Second

// Options configures a Client.
type Options struct {
	Command    string
	BaseArgs   []string
	ResumeFlag string
	WorkDir    string
	Env        []string
	// Timeout bounds a single invocation; zero waits indefinitely.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client invokes the agent CLI with os/exec.
type Client struct {
	command    string
	baseArgs   []string
	resumeFlag string
	workDir    string
	env        []string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a new agent CLI client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		command:    opts.Command,
		baseArgs:   append([]string(nil), opts.BaseArgs...),
		resumeFlag: opts.ResumeFlag,
		workDir:    opts.WorkDir,
		env:        append([]string(nil), opts.Env...),
		timeout:    opts.Timeout,
		logger:     logger,
	}
}

// BuildArgs returns the argument list for one turn.
func (c *Client) BuildArgs(prompt, continuationToken string) []string {
	args := make([]string, 0, len(c.baseArgs)+3)
	args = append(args, c.baseArgs...)
	if continuationToken != "" {
		args = append(args, c.resumeFlag, continuationToken)
	}
	return append(args, prompt)
}

// Invoke runs the agent process to completion and collects its output.
func (c *Client) Invoke(ctx context.Context, prompt, continuationToken string) (*domain.InvocationResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.BuildArgs(prompt, continuationToken)
	cmd := exec.CommandContext(ctx, c.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	if c.timeout > 0 {
		cmd.WaitDelay = waitDelay
	}
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	c.logger.Debug("invoking agent",
		"command", c.command,
		"args", args[:len(args)-1],
		"resume", continuationToken != "",
		"prompt_chars", len(prompt))

	start := time.Now()
	err := cmd.Run()
	result := &domain.InvocationResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			// Exited, but a descendant kept the output pipes open.
			result.ExitCode = cmd.ProcessState.ExitCode()
		default:
			return nil, fmt.Errorf("failed to run %s: %w", c.command, err)
		}
	}

	c.logger.Debug("agent exited",
		"exit_code", result.ExitCode,
		"stdout_bytes", len(result.Stdout),
		"stderr", result.Stderr,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
