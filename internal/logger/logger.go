// Package logger holds the process-wide structured logger.
package logger

import (
	"go.uber.org/zap"
)

// Logger is the global sugared logger. It starts as a no-op so packages can
// log before Initialize runs (or in tests that never call it).
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize replaces the global logger. JSON output is meant for machine
// consumption; the console form is for interactive runs.
func Initialize(jsonOutput, verbose bool) error {
	var cfg zap.Config
	if jsonOutput {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = zl.Sugar()
	return nil
}
