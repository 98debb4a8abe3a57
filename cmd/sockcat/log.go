package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger maps -v counts to zap levels: none is warnings only, -v info,
// -vv debug with the development encoder.
func newLogger(verbosity int) (*zap.Logger, error) {
	var cfg zap.Config
	switch {
	case verbosity >= 2:
		cfg = zap.NewDevelopmentConfig()
	case verbosity == 1:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = verbosity < 2
	return cfg.Build()
}
