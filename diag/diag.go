// Package diag is the runtime's diagnostics sink: a process-wide, mutually
// exclusive leveled logger. Workers report through it without interleaving
// output, and fatal conditions (allocation failure, protocol violations
// under strict checks) terminate the process through it.
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// Exit terminates the process after a fatal diagnostic. It is a variable so
// that tests can intercept fatal paths; everything else should leave it
// alone.
var Exit func(code int) = os.Exit

// SetOutput redirects all subsequent diagnostics to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Info().Msgf(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Warn().Msgf(format, args...)
}

// Errorf logs an error the process can continue from.
func Errorf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Error().Msgf(format, args...)
}

// Fatalf logs an error the process cannot continue from and calls Exit(1).
func Fatalf(format string, args ...interface{}) {
	mu.Lock()
	logger.Error().Msgf(format, args...)
	mu.Unlock()
	Exit(1)
}
