// Package config provides env-backed application configuration.
package config

import "fmt"

// Config holds application configuration.
type Config struct {
	// Server holds HTTP server configuration.
	Server ServerConfig
	// Logger holds logger configuration.
	Logger LoggerConfig
	// Scheduler holds background cycle configuration.
	Scheduler SchedulerConfig
	// Remote holds hosting-service and notifier configuration.
	Remote RemoteConfig
	// GinMode is the Gin framework mode (debug, release, test).
	GinMode string
}

// LoadFromEnv loads all configuration from environment variables.
func LoadFromEnv() Config {
	return Config{
		Server:    LoadServerConfigFromEnv(),
		Logger:    LoadLoggerConfigFromEnv(),
		Scheduler: LoadSchedulerConfigFromEnv(),
		Remote:    LoadRemoteConfigFromEnv(),
		GinMode:   GetEnv("GIN_MODE", "release"),
	}
}

// Validate validates every section and fails on the first problem found.
func (c Config) Validate() error {
	sections := []struct {
		name     string
		validate func() error
	}{
		{"server", c.Server.Validate},
		{"logger", c.Logger.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"remote", c.Remote.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%s config validation failed: %w", s.name, err)
		}
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE: %s (must be: debug, release, test)", c.GinMode)
	}

	return nil
}
