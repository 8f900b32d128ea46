package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	Host      string `env:"HOST" default:"127.0.0.1"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SubscriberBuffer       int     `env:"SUBSCRIBER_BUFFER" default:"16"`
	MaxSubscribers         int     `env:"MAX_SUBSCRIBERS" default:"1000"`
	SubscribeRatePerSecond float64 `env:"SUBSCRIBE_RATE_PER_SECOND" default:"5"`
	SubscribeRateBurst     int     `env:"SUBSCRIBE_RATE_BURST" default:"10"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
	PingInterval    time.Duration `env:"PING_INTERVAL" default:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" default:"5s"`

	// Comma-separated browser origins allowed to open /ws. Empty allows all.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
}

// Addr is the listen address for the broadcast server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is required")
	}

	positiveInts := []struct {
		name  string
		value int
	}{
		{"SUBSCRIBER_BUFFER", cfg.SubscriberBuffer},
		{"MAX_SUBSCRIBERS", cfg.MaxSubscribers},
		{"SUBSCRIBE_RATE_BURST", cfg.SubscribeRateBurst},
	}
	for _, p := range positiveInts {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if cfg.SubscribeRatePerSecond <= 0 {
		return fmt.Errorf("SUBSCRIBE_RATE_PER_SECOND must be positive, got %v", cfg.SubscribeRatePerSecond)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout},
		{"PING_INTERVAL", cfg.PingInterval},
		{"WRITE_TIMEOUT", cfg.WriteTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}

	return nil
}
