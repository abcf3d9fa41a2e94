package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTP  HTTPConfig
	GRPC  GRPCConfig
	Kafka KafkaConfig
	Log   LogConfig
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"4194304"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// GRPCConfig enables the OTLP/gRPC receiver when Addr is set.
type GRPCConfig struct {
	Addr string `env:"GRPC_ADDR"`
}

// KafkaConfig enables the Kafka intake when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"traces"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"spanecho"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive: %d", c.HTTP.MaxBodyBytes)
	}
	if c.HTTP.ShutdownTimeout < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must not be negative: %s", c.HTTP.ShutdownTimeout)
	}
	if c.Kafka.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch strings.ToLower(c.Log.Output) {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("LOG_OUTPUT must be stdout or stderr: %q", c.Log.Output)
	}
	return nil
}
