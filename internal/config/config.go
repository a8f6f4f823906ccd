// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	HealthTimeout  time.Duration `yaml:"health_timeout"`
	NoticeDuration time.Duration `yaml:"notice_duration"`
	ExportDir      string        `yaml:"export_dir"`
	ExportFormat   string        `yaml:"export_format"` // "json" or "yaml"
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	// QuickStart lists suggestion chips offered after the greeting.
	QuickStart      []string              `yaml:"quick_start"`
	ConversationLog ConversationLogConfig `yaml:"conversation_log"`
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`
	QueueSize int    `yaml:"queue_size"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BaseURL:        "http://localhost:8080/api/chat",
		RequestTimeout: 30 * time.Second,
		HealthTimeout:  5 * time.Second,
		NoticeDuration: 5 * time.Second,
		ExportDir:      ".",
		ExportFormat:   "json",
		LogLevel:       "info",
		QuickStart: []string{
			"What can you help me with?",
			"Tell me a joke",
			"What's the weather like?",
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   false,
			Dir:       "./data/logs/conversations",
			QueueSize: 1000,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.ConversationLog.QueueSize <= 0 {
		cfg.ConversationLog.QueueSize = 1000
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("CHAT_API_BASE_URL", c.BaseURL)
	c.RequestTimeout = getEnvDuration("CHAT_REQUEST_TIMEOUT", c.RequestTimeout)
	c.HealthTimeout = getEnvDuration("CHAT_HEALTH_TIMEOUT", c.HealthTimeout)
	c.NoticeDuration = getEnvDuration("CHAT_NOTICE_DURATION", c.NoticeDuration)
	c.ExportDir = getEnv("CHAT_EXPORT_DIR", c.ExportDir)
	c.ExportFormat = getEnv("CHAT_EXPORT_FORMAT", c.ExportFormat)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.ConversationLog.Enabled = getEnvBool("CONVERSATION_LOG_ENABLED", c.ConversationLog.Enabled)
	c.ConversationLog.Dir = getEnv("CONVERSATION_LOG_DIR", c.ConversationLog.Dir)
	c.ConversationLog.QueueSize = getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", c.ConversationLog.QueueSize)
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("CHAT_API_BASE_URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CHAT_API_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("CHAT_REQUEST_TIMEOUT must be > 0")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("CHAT_HEALTH_TIMEOUT must be > 0")
	}
	if c.NoticeDuration <= 0 {
		return fmt.Errorf("CHAT_NOTICE_DURATION must be > 0")
	}
	switch c.ExportFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("CHAT_EXPORT_FORMAT must be json or yaml, got %q", c.ExportFormat)
	}
	if c.ExportDir == "" {
		return fmt.Errorf("CHAT_EXPORT_DIR cannot be empty")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
