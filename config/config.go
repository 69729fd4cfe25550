package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Session       SessionConfig       `yaml:"session"`
	Tarok         TarokConfig         `yaml:"tarok"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration. An empty URL runs the event bus in
// memory.
type NATSConfig struct {
	URL        string `yaml:"url" env:"NATS_URL"`
	QueueGroup string `yaml:"queue_group" env:"NATS_QUEUE_GROUP"`
}

// HTTPConfig holds the report and health endpoint settings.
type HTTPConfig struct {
	Addr           string  `yaml:"addr" env:"HTTP_ADDR"`
	RateLimit      float64 `yaml:"rate_limit" env:"HTTP_RATE_LIMIT"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"HTTP_RATE_LIMIT_BURST"`
}

// SessionConfig holds session lifecycle settings. A zero IdleTimeout
// disables idle expiry.
type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT"`
}

// TarokConfig holds Tarok scoring options.
type TarokConfig struct {
	StrictDuplicates bool `yaml:"strict_duplicates" env:"TAROK_STRICT_DUPLICATES"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment     string  `yaml:"environment" env:"ENV"`
	MetricsAddress  string  `yaml:"metrics_address" env:"METRICS_ADDRESS"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	TempoSampleRate float64 `yaml:"tempo_sample_rate" env:"TEMPO_SAMPLE_RATE"`
}

// Defaults returns the configuration used for any setting left unset.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			RateLimit:      5,
			RateLimitBurst: 10,
		},
		Session: SessionConfig{IdleTimeout: 2 * time.Hour},
		Observability: ObservabilityConfig{
			Environment:     "development",
			TempoSampleRate: 0.1,
		},
	}
}

// LoadConfig loads the configuration from a YAML file. Environment variables
// override file values. A missing file falls back to defaults plus the
// environment.
func LoadConfig(filename string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn (DATABASE_URL) is not set")
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout must not be negative, got %s", c.Session.IdleTimeout)
	}
	if r := c.Observability.TempoSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("observability.tempo_sample_rate must be within [0,1], got %v", r)
	}
	return nil
}
