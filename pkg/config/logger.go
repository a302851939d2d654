package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the process-wide zap logger. The level comes from
// LOG_LEVEL (debug, info, warn, error; default info) and every entry
// carries the trading mode from MODE so paper and live output can be
// told apart when logs from both land in the same sink.
func NewLogger() (*zap.Logger, error) {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}

	var level zapcore.Level
	err := level.UnmarshalText([]byte(levelStr))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "json"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	mode := os.Getenv("MODE")
	if mode == "" {
		mode = "paper"
	}

	logger, err := config.Build(zap.Fields(zap.String("mode", mode)))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Named("options-arb"), nil
}
