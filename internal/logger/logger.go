// Package logger owns the process-wide zap logger shared by the API server
// and the enrichment CLIs.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	global *zap.SugaredLogger
	once   sync.Once
)

// Init builds the global logger once. "production" selects the JSON encoder
// with sampling; any other environment gets the console encoder, which reads
// better for local runs and one-shot batch invocations.
func Init(env string) {
	once.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		if env == "production" {
			cfg = zap.NewProductionConfig()
		}

		base, err := cfg.Build()
		if err != nil {
			base = zap.NewNop()
		}
		global = base.Sugar()
	})
}

// Get returns the shared sugared logger, initializing a development one when
// no entrypoint called Init first. Tests rely on that fallback.
func Get() *zap.SugaredLogger {
	if global == nil {
		Init("development")
	}
	return global
}

// Sync flushes buffered entries. Entrypoints defer it around main.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
