// Package logging builds the process-wide zap.Logger from environment
// configuration, the way every binary in this module should construct
// its logger: MY_LOG_LEVEL selects severity, MY_LOG_STYLE selects
// whether level names are ANSI-colored.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger from MY_LOG_LEVEL and MY_LOG_STYLE, falling
// back to "info" and "always" respectively when unset or unparsable.
func New() (*zap.Logger, error) {
	level := parseLevel(envOr("MY_LOG_LEVEL", "info"))
	colored := envOr("MY_LOG_STYLE", "always") != "never"

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if colored {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}

func parseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
