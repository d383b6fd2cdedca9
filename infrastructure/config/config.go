// Package config loads the service configuration from YAML with
// environment variable expansion and optional live reload.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Gateway   GatewayConfig    `yaml:"gateway"`
	Reasoning ReasoningConfig  `yaml:"reasoning"`
	Memory    MemoryConfig     `yaml:"memory"`
	Knowledge KnowledgeConfig  `yaml:"knowledge"`
	Logging   LoggingConfig    `yaml:"logging"`
	Tracing   TracingConfig    `yaml:"tracing"`
}

// ServerConfig configures the HTTP interface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig configures one LLM provider in the fallback chain.
type ProviderConfig struct {
	Name       string        `yaml:"name"` // openrouter, deepseek
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	ModelFlash string        `yaml:"model_flash"`
	ModelPro   string        `yaml:"model_pro"`
	Timeout    time.Duration `yaml:"timeout"`
}

// GatewayConfig configures the LLM fallback chain and its breakers.
type GatewayConfig struct {
	Providers        []ProviderConfig `yaml:"providers"`
	BreakerThreshold int              `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration    `yaml:"breaker_cooldown"`
	Temperature      float64          `yaml:"temperature"`
	MaxTokens        int              `yaml:"max_tokens"`
}

// ReasoningConfig bounds the reasoning loop.
type ReasoningConfig struct {
	MaxSteps          int           `yaml:"max_steps"`
	StreamSendTimeout time.Duration `yaml:"stream_send_timeout"`
}

// MemoryConfig selects the conversation store backend.
type MemoryConfig struct {
	Backend  string         `yaml:"backend"` // memory, redis, postgres, badger
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Badger   BadgerConfig   `yaml:"badger"`
}

// RedisConfig configures the Redis conversation store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig configures the Postgres conversation store.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// BadgerConfig configures the embedded Badger conversation store.
type BadgerConfig struct {
	Dir string `yaml:"dir"`
}

// KnowledgeConfig configures the vector store.
type KnowledgeConfig struct {
	Dimension int `yaml:"dimension"`
	TopK      int `yaml:"top_k"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Export  string `yaml:"export"` // stdout, none
}

// Configuration errors.
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidFormat  = errors.New("invalid configuration format")
	ErrMissingEnvVars = errors.New("missing required environment variables")
)

// Default returns a configuration usable without a file: in-memory
// everything, console logging, a single env-keyed provider slot.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Gateway: GatewayConfig{
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
			Temperature:      0.3,
			MaxTokens:        2048,
		},
		Reasoning: ReasoningConfig{
			MaxSteps:          5,
			StreamSendTimeout: 5 * time.Second,
		},
		Memory:    MemoryConfig{Backend: "memory"},
		Knowledge: KnowledgeConfig{Dimension: 768, TopK: 5},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Tracing:   TracingConfig{Enabled: false, Export: "stdout"},
	}
}

// Validate checks invariants a misconfigured deployment would trip at
// runtime.
func (c *Config) Validate() error {
	if c.Reasoning.MaxSteps <= 0 {
		return fmt.Errorf("%w: reasoning.max_steps must be positive", ErrInvalidFormat)
	}
	switch c.Memory.Backend {
	case "memory", "redis", "postgres", "badger":
	default:
		return fmt.Errorf("%w: unknown memory backend %q", ErrInvalidFormat, c.Memory.Backend)
	}
	for i, p := range c.Gateway.Providers {
		if p.Name == "" {
			return fmt.Errorf("%w: gateway.providers[%d] has no name", ErrInvalidFormat, i)
		}
	}
	return nil
}
