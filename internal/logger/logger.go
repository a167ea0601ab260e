// Package logger holds the logger shared by the screen packages.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the shared logger. Its level defaults to info; SCREEN_DEBUG
// switches it to debug and LOG_LEVEL overrides both.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "screen",
		Level:  log.InfoLevel,
	})

	if os.Getenv("SCREEN_DEBUG") != "" {
		Logger.SetLevel(log.DebugLevel)
	}
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		if level, err := log.ParseLevel(value); err == nil {
			Logger.SetLevel(level)
		}
	}
}

// For returns a logger tagged with the backend name.
func For(backend string) *log.Logger {
	return Logger.With("backend", backend)
}

// SetDebug toggles debug logging.
func SetDebug(enable bool) {
	if enable {
		Logger.SetLevel(log.DebugLevel)
	} else {
		Logger.SetLevel(log.InfoLevel)
	}
}
