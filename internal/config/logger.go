package config

import "fmt"

// LoggerConfig controls how the process logger is built.
type LoggerConfig struct {
	// Level is the minimum level emitted (debug, info, warn, error).
	Level string
	// Format selects the encoder (json, console).
	Format string
	// Output is the destination (stdout, stderr, or a file path).
	Output string
}

// LoadLoggerConfigFromEnv reads LOG_* variables, falling back to
// json logging at info level on stdout.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", "json"),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// Validate checks level and format against the values the logger accepts.
func (c LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}

	return nil
}

// IsProduction reports whether the configuration looks like a production
// deployment: json output without debug logging.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}
