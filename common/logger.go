package common

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
	logger     *log.Logger
)

// Logger returns the process-wide structured logger, creating it on first use.
// The default logger writes to stderr at info level with timestamps and caller information.
//
// Returns:
//   - *log.Logger: the shared logger
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy",
		})
		l.SetLevel(log.InfoLevel)
		loggerMu.Lock()
		if logger == nil {
			logger = l
		}
		loggerMu.Unlock()
	})

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger replaces the process-wide logger. Passing nil is ignored.
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	loggerOnce.Do(func() {})
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// SetLogLevel parses level ("debug", "info", "warn", "error", "fatal") and applies it to the shared logger.
//
// Parameters:
//   - level: the textual level
//
// Returns:
//   - error: ErrInvalidConfig wrapped with the parse failure if level is unknown
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: log level %q: %v", ErrInvalidConfig, level, err)
	}
	Logger().SetLevel(lvl)
	return nil
}
