// ABOUTME: Configuration loading and parsing for the fable client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fablesmith/fable-client/internal/agents"
)

// Config represents the complete client configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Storage StorageConfig `yaml:"storage"`
	Chat    ChatConfig    `yaml:"chat"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds backend address configuration
type ServerConfig struct {
	URL string `yaml:"url"`
}

// ClientConfig holds the caller identity sent on every channel
type ClientConfig struct {
	UserID string `yaml:"user_id"`
}

// StorageConfig holds local persistence configuration. An empty path selects
// the in-memory store (nothing survives the process).
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ChatConfig holds conversation behavior configuration
type ChatConfig struct {
	DefaultAgent string        `yaml:"default_agent"`
	TurnTimeout  time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TurnTimeoutRaw string `yaml:"turn_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{URL: "http://localhost:8000"},
		Client:  ClientConfig{UserID: "user_default"},
		Chat:    ChatConfig{DefaultAgent: agents.Default(), TurnTimeout: 120 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values. Unset fields keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Client.UserID == "" {
		return fmt.Errorf("client.user_id is required")
	}
	if c.Chat.DefaultAgent != "" && !agents.Valid(c.Chat.DefaultAgent) {
		return fmt.Errorf("chat.default_agent %q is not a known agent", c.Chat.DefaultAgent)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Chat.TurnTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Chat.TurnTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing turn_timeout %q: %w", cfg.Chat.TurnTimeoutRaw, err)
		}
		cfg.Chat.TurnTimeout = d
	}
	return nil
}

// SlogLevel maps the configured level string onto a slog.Level. Unknown
// values fall back to Info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
