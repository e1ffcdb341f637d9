package amorph

import (
	"errors"
	"fmt"
	"runtime"
)

// A Mode declares the intent of a conflict-checked acquisition. It
// determines whether the acquisition performs a conflict check at all, and
// whether subsequent writes to the acquired object are permitted.
type Mode int

const (
	// ModeNone skips the conflict check entirely. The caller asserts that
	// the access is safe, for example because the object is provably
	// private to the current iteration.
	ModeNone Mode = iota

	// ModeRead acquires the object with read intent. A conflict check is
	// performed, but the object is not marked dirty.
	ModeRead

	// ModeWrite acquires the object with write intent and marks it dirty,
	// so that a reduction or accumulator built on top of it knows to fold
	// in the change.
	ModeWrite

	// ModeAll is the default mode: conflict-checked and write-capable.
	ModeAll
)

// Checked reports whether acquisitions in this mode perform the conflict
// check.
func (m Mode) Checked() bool {
	return m != ModeNone
}

// WriteCapable reports whether acquisitions in this mode permit subsequent
// writes to the acquired object.
func (m Mode) WriteCapable() bool {
	return m == ModeWrite || m == ModeAll
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAll:
		return "all"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrConflict is returned by conflict-checked acquisition when the object is
// owned by a different running iteration. It is a retryable condition, not a
// failure: the iteration must stop executing, release every object it owns,
// and hand its work item back for re-execution later.
//
// ErrConflict occurs at high frequency under contention, so it is a
// distinguished sentinel value rather than a wrapped error carrying context.
var ErrConflict = errors.New("amorph: conflict detected")

// A Config describes the worker pool the runtime components are sized for.
// The zero Config is valid and is filled in by WithDefaults.
type Config struct {
	// Workers is the number of worker goroutines, fixed for the lifetime
	// of the pool. Worker ids range over 0..Workers-1.
	Workers int

	// PageBatch is the number of pages moved between a worker's local
	// free list and the global pool in one refill or flush, and the
	// number of pages carved from the OS when the global pool runs dry.
	PageBatch int

	// LocalPageCap is the local free list length above which a worker
	// flushes pages back to the global pool.
	LocalPageCap int
}

// WithDefaults returns a copy of c with zero fields replaced by defaults
// derived from runtime.GOMAXPROCS(0).
func (c Config) WithDefaults() Config {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.PageBatch == 0 {
		c.PageBatch = 16
	}
	if c.LocalPageCap == 0 {
		c.LocalPageCap = 4 * c.PageBatch
	}
	return c
}

// Validate reports a configuration error, if any. Configuration errors are
// fatal at startup: components reject the configuration in their
// constructors rather than degrading at run time.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("amorph: invalid worker count: %d", c.Workers)
	}
	if c.PageBatch <= 0 {
		return fmt.Errorf("amorph: invalid page batch: %d", c.PageBatch)
	}
	if c.LocalPageCap < c.PageBatch {
		return fmt.Errorf("amorph: local page cap %d below page batch %d", c.LocalPageCap, c.PageBatch)
	}
	return nil
}
