// Package logger holds the process-wide zap logger. The import pipeline and
// HTTP layer fetch it with Get instead of threading a logger through every
// constructor.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger for the given environment. "production"
// gets the JSON encoder; everything else, including tests, gets the
// human-readable console encoder.
func Init(env string) {
	once.Do(func() {
		var l *zap.Logger
		var err error

		if env == "production" {
			l, err = zap.NewProduction()
		} else {
			l, err = zap.NewDevelopment()
		}

		if err != nil {
			// Never fail startup over logging.
			l = zap.NewNop()
		}

		sugar = l.Sugar()
	})
}

// Get returns the global sugared logger, initializing a development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Deferred from main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
