// Package conflict implements the per-object conflict-detection protocol:
// every shared mutable object an iteration touches is wrapped in a lockable
// capability, and acquiring it with a given access mode registers intent and
// detects conflicts against concurrently running iterations.
//
// Iterations execute optimistically. Ownership of a lockable object is
// acquired incrementally while an iteration runs and released only in one
// bulk pass when the iteration commits or aborts, never individually
// mid-iteration. No rollback of object data is attempted, only of lock
// state: an object whose mutation cannot be undone must not be mutated
// before all of the iteration's acquisitions are known to succeed, or the
// caller must keep its own undo log.
//
// A failed acquisition returns amorph.ErrConflict. The enclosing iteration
// must treat it as fatal to this attempt: stop executing immediately, call
// Abort to release everything it owns, and hand the work item back to its
// scheduler for re-execution later.
package conflict

import (
	"sync/atomic"

	"github.com/hookk/amorph"
	"github.com/hookk/amorph/diag"
	"github.com/hookk/amorph/spin"
)

// StrictChecks controls the protocol-violation policy. When true,
// violations (a write check under a read-only mode, a release by a
// non-owner) are fatal through the diagnostics sink. When false they are
// ignored, matching optimized builds of the runtime. Violations are
// programming defects either way, never run-time conditions.
var StrictChecks = false

// A Lockable is the intrinsic ownership token carried by every shared
// mutable object the runtime manages. Embed it in application data (a graph
// node, a tree node) or use Wrapped for arbitrary values. The zero Lockable
// is unowned and ready for use. A Lockable must not be copied after first
// use.
type Lockable struct {
	owner atomic.Pointer[Context]
	dirty atomic.Bool
}

// Dirty reports whether the object has been acquired with write intent
// since the last ClearDirty. Reduction and accumulator layers use it to
// decide whether to fold the object's state back in.
func (l *Lockable) Dirty() bool {
	return l.dirty.Load()
}

// ClearDirty resets the dirty mark. Call it from the reduction layer after
// folding, at a point where no iteration owns the object.
func (l *Lockable) ClearDirty() {
	l.dirty.Store(false)
}

// A Context is the execution state of one iteration attempt: the identity
// of the executing worker, the set of lockable objects the attempt owns,
// and a flag recording whether it has been signaled to abort.
//
// A Context is used by a single worker goroutine at a time. It is reusable:
// after Commit or Abort it is ready for the next iteration.
type Context struct {
	tid     int
	owned   []*Lockable
	aborted atomic.Bool
}

// NewContext returns an execution context for the worker with the given id.
// Workers typically create one context each and reuse it across iterations.
func NewContext(tid int) *Context {
	return &Context{tid: tid}
}

// Worker returns the id of the worker executing this context.
func (c *Context) Worker() int {
	return c.tid
}

// Acquire claims ownership of l for this iteration with the given access
// mode.
//
// If mode is ModeNone the call is a no-op: the caller asserts the access is
// safe. Otherwise, an unowned object transfers to this context and is
// recorded for bulk release; an object already owned by this context
// returns immediately with no duplicate bookkeeping; an object owned by a
// different running context returns amorph.ErrConflict.
//
// Write-capable acquisition marks the object dirty; read intent never does.
//
// The check is a single compare-and-swap on the ownership word: a competing
// acquisition strictly observes "not yet owned" or "owned by other", with
// no lost-update window.
func (c *Context) Acquire(l *Lockable, mode amorph.Mode) error {
	if !mode.Checked() {
		return nil
	}
	if c.aborted.Load() {
		return amorph.ErrConflict
	}
	for {
		switch o := l.owner.Load(); {
		case o == c:
			if mode.WriteCapable() {
				l.dirty.Store(true)
			}
			return nil
		case o != nil:
			return amorph.ErrConflict
		default:
			if l.owner.CompareAndSwap(nil, c) {
				c.owned = append(c.owned, l)
				if mode.WriteCapable() {
					l.dirty.Store(true)
				}
				return nil
			}
			// Lost the race; reinspect the winner.
		}
	}
}

// CheckWrite asserts that a code path about to mutate state was reached
// under a write-capable mode with ownership of l. Violations are
// protocol-violation class: fatal under StrictChecks, ignored otherwise.
func (c *Context) CheckWrite(l *Lockable, mode amorph.Mode) {
	if !StrictChecks || !mode.Checked() {
		// Unchecked accesses asserted their own safety at the call site.
		return
	}
	if !mode.WriteCapable() {
		diag.Fatalf("conflict: worker %d writes under %v mode", c.tid, mode)
	}
	if l.owner.Load() != c {
		diag.Fatalf("conflict: worker %d writes an object it does not own", c.tid)
	}
}

// Owned returns the number of objects this context currently owns.
func (c *Context) Owned() int {
	return len(c.owned)
}

// SignalAbort asks the iteration to abort. The flag is advisory: the
// iteration observes it through Aborted or through its next Acquire, which
// fails once the flag is set.
func (c *Context) SignalAbort() {
	c.aborted.Store(true)
}

// Aborted reports whether SignalAbort has been called since the last
// Commit or Abort.
func (c *Context) Aborted() bool {
	return c.aborted.Load()
}

// Commit releases every object acquired during this iteration, making each
// immediately acquirable by other contexts, and readies the context for the
// next iteration.
func (c *Context) Commit() {
	c.release()
}

// Abort is the rollback path: identical lock-state handling to Commit,
// kept separate because callers reach it on the conflict path and the
// distinction matters to retry accounting layered above.
func (c *Context) Abort() {
	c.release()
}

func (c *Context) release() {
	for i, l := range c.owned {
		if !l.owner.CompareAndSwap(c, nil) && StrictChecks {
			diag.Fatalf("conflict: worker %d releases an object it does not own", c.tid)
		}
		c.owned[i] = nil
	}
	c.owned = c.owned[:0]
	c.aborted.Store(false)
}

// A Backoff spaces out retries of a repeatedly conflicting work item:
// bounded exponential spinning that degrades to yielding the processor.
// The conflict layer itself only guarantees that an aborted item is
// retryable; when and how hard to retry is the caller's policy, and Backoff
// is the default one.
type Backoff struct {
	attempt int
}

// Wait blocks briefly, longer after each consecutive call.
func (b *Backoff) Wait() {
	b.attempt = spin.Pause(b.attempt)
}

// Reset makes the next Wait short again. Call it after a successful
// attempt.
func (b *Backoff) Reset() {
	b.attempt = 0
}
