package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger on stderr. stdout is left to the
// progress bar.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Encoding:          "console",
		EncoderConfig:     encoder,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
		DisableCaller:     lvl > zapcore.DebugLevel,
	}
	return cfg.Build()
}

func WithRunID(logger *zap.Logger, runID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID))
}

func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return logger.Named(component)
}
