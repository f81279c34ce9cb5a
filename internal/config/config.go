// Package config provides configuration for the gateway.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`

	// Model id reported on the OpenAI-compatible surface
	ModelName string `yaml:"model_name"`

	// Agent process settings
	Agent AgentConfig `yaml:"agent"`

	// Session storage
	SessionStore string `yaml:"session_store"`
	DatabaseURL  string `yaml:"database_url"`

	// Invocation policy module; empty uses the built-in policy
	PolicyFile string `yaml:"policy_file"`

	// WebSocket settings
	WS WSConfig `yaml:"websocket"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Mode selects the runner; MOCK answers without spawning processes
	Mode string `yaml:"mode"`
}

// AgentConfig describes how the agent CLI is invoked.
type AgentConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	ResumeFlag string   `yaml:"resume_flag"`
	WorkDir    string   `yaml:"workdir"`
	Env        []string `yaml:"env"`
	TimeoutMs  int      `yaml:"timeout_ms"`
}

// Timeout returns the invocation timeout; zero means unbounded.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// WSConfig holds WebSocket connection settings.
type WSConfig struct {
	PingIntervalMs int   `yaml:"ping_interval_ms"`
	WriteTimeoutMs int   `yaml:"write_timeout_ms"`
	MaxMessageSize int64 `yaml:"max_message_size"`
}

func (w WSConfig) PingInterval() time.Duration {
	return time.Duration(w.PingIntervalMs) * time.Millisecond
}

func (w WSConfig) WriteTimeout() time.Duration {
	return time.Duration(w.WriteTimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      3000,
		ModelName: "claude-code",
		Agent: AgentConfig{
			Command:    "claude",
			Args:       []string{"-p", "--output-format", "json"},
			ResumeFlag: "--resume",
		},
		SessionStore: StoreMemory,
		DatabaseURL:  "file:gateway?mode=memory&cache=shared",
		WS: WSConfig{
			PingIntervalMs: 30000,
			WriteTimeoutMs: 10000,
			MaxMessageSize: 1 << 20,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.ModelName = getEnv("MODEL_NAME", cfg.ModelName)
	cfg.Agent.Command = getEnv("AGENT_COMMAND", cfg.Agent.Command)
	if val := os.Getenv("AGENT_ARGS"); val != "" {
		cfg.Agent.Args = strings.Fields(val)
	}
	cfg.Agent.ResumeFlag = getEnv("AGENT_RESUME_FLAG", cfg.Agent.ResumeFlag)
	cfg.Agent.WorkDir = getEnv("AGENT_WORKDIR", cfg.Agent.WorkDir)
	cfg.Agent.TimeoutMs = getEnvInt("AGENT_TIMEOUT_MS", cfg.Agent.TimeoutMs)
	cfg.SessionStore = getEnv("SESSION_STORE", cfg.SessionStore)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.PolicyFile = getEnv("POLICY_FILE", cfg.PolicyFile)
	cfg.WS.PingIntervalMs = getEnvInt("WS_PING_INTERVAL_MS", cfg.WS.PingIntervalMs)
	cfg.WS.WriteTimeoutMs = getEnvInt("WS_WRITE_TIMEOUT_MS", cfg.WS.WriteTimeoutMs)
	cfg.WS.MaxMessageSize = int64(getEnvInt("WS_MAX_MESSAGE_SIZE", int(cfg.WS.MaxMessageSize)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Mode = getEnv("GATEWAY_MODE", cfg.Mode)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Agent.Command == "" {
		return fmt.Errorf("agent.command is required")
	}
	if c.Agent.ResumeFlag == "" {
		return fmt.Errorf("agent.resume_flag is required")
	}
	if c.Agent.TimeoutMs < 0 {
		return fmt.Errorf("agent.timeout_ms must not be negative")
	}
	switch c.SessionStore {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown session_store %q", c.SessionStore)
	}
	if c.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
