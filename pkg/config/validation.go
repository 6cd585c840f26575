package config

import (
	"fmt"
	"strings"
)

// Validate checks a fully-defaulted Config for internally consistent
// values. It is hand-rolled rather than reflection/tag-driven: see
// DESIGN.md for why go-playground/validator isn't wired into this repo.
func Validate(cfg *Config) error {
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if cfg.DBDir == "" {
		return fmt.Errorf("dbdir: required")
	}
	if cfg.BindAddr == "" {
		return fmt.Errorf("bindaddr: required")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging.level: must be one of DEBUG, INFO, WARN, ERROR (oneof), got %q", cfg.Level)
	}

	switch cfg.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: must be one of text, json (oneof), got %q", cfg.Format)
	}

	if cfg.Output == "" {
		return fmt.Errorf("logging.output: required")
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.ControlChannelCapacity <= 0 {
		return fmt.Errorf("server.control_channel_capacity: must be greater than 0, got %d", cfg.ControlChannelCapacity)
	}
	if cfg.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections: must be >= 0, got %d", cfg.MaxConnections)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout: must be greater than 0, got %v", cfg.ShutdownTimeout)
	}
	return nil
}

func validateMetrics(cfg *MetricsConfig) error {
	if cfg.Enabled && (cfg.Port < 1 || cfg.Port > 65535) {
		return fmt.Errorf("metrics.port: must be between 1 and 65535, got %d", cfg.Port)
	}
	return nil
}
