// Package spin provides the low-level synchronization primitives the rest of
// the runtime is built on: a test-and-set spin lock for critical sections
// held for microseconds, and a bounded spin-then-yield backoff helper.
//
// A spin lock trades idle CPU for minimal wake-up latency, which is
// appropriate for the short, high-frequency synchronization this runtime
// targets. For anything that may block for longer, use the standard
// library's sync package instead.
package spin

import (
	"runtime"
	"sync/atomic"
)

// maxSpin bounds the exponential busy-wait before Pause starts yielding the
// processor to the Go scheduler.
const maxSpin = 6

// Pause backs off after an unsuccessful attempt to make progress. It busy
// spins for 2^attempt iterations while attempt is small and yields the
// processor beyond that. It returns the attempt counter to pass to the next
// call; callers reset the counter to zero once they make progress.
func Pause(attempt int) int {
	if attempt < maxSpin {
		for i := 0; i < 1<<uint(attempt); i++ {
			spinWait()
		}
		return attempt + 1
	}
	runtime.Gosched()
	return attempt
}

//go:noinline
func spinWait() {}

// A Lock is a test-and-set spin lock. The zero Lock is unlocked and ready
// for use. A Lock must not be copied after first use.
type Lock struct {
	word atomic.Uint32
}

// TryLock attempts to acquire the lock without waiting and reports whether
// it succeeded.
func (l *Lock) TryLock() bool {
	return l.word.CompareAndSwap(0, 1)
}

// Lock acquires the lock, spinning with backoff until it is available.
func (l *Lock) Lock() {
	attempt := 0
	for !l.TryLock() {
		attempt = Pause(attempt)
	}
}

// Unlock releases the lock. It must only be called by the holder.
func (l *Lock) Unlock() {
	l.word.Store(0)
}

// With runs f while holding the lock. The lock is released on every exit
// path, including a panic inside f.
func (l *Lock) With(f func()) {
	l.Lock()
	defer l.Unlock()
	f()
}
