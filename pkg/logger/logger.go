// Package logger builds the process-wide zap logger from configuration.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appConfig "github.com/triageops/reviewqueue/internal/config"
)

// New builds a logger from LOG_* environment variables.
func New() (*zap.SugaredLogger, error) {
	return NewWithConfig(appConfig.LoadLoggerConfigFromEnv())
}

// NewWithConfig builds a logger from an explicit configuration. An
// unparseable level falls back to info; anything other than stdout or
// stderr as output falls back to stdout.
func NewWithConfig(cfg appConfig.LoggerConfig) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	switch cfg.Format {
	case "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		zapConfig.Encoding = "json"
	}

	zapConfig.OutputPaths = []string{resolveOutput(cfg.Output)}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// NewNop returns a no-op logger, useful in tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func resolveOutput(out string) string {
	if out == "stdout" || out == "stderr" {
		return out
	}
	return "stdout"
}
