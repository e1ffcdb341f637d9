package conflict

import "github.com/hookk/amorph"

// A Wrapped performs conflict detection on an enclosed value, letting
// arbitrary types be managed by the runtime without embedding Lockable
// themselves.
type Wrapped[T any] struct {
	Lockable
	val T
}

// Wrap returns a conflict-checked wrapper around v.
func Wrap[T any](v T) *Wrapped[T] {
	return &Wrapped[T]{val: v}
}

// Get acquires the wrapper for ctx in the given mode and returns a pointer
// to the enclosed value, or amorph.ErrConflict if another iteration owns
// it. Callers must not retain the pointer past Commit or Abort.
func (w *Wrapped[T]) Get(ctx *Context, mode amorph.Mode) (*T, error) {
	if err := ctx.Acquire(&w.Lockable, mode); err != nil {
		return nil, err
	}
	return &w.val, nil
}

// A Checked is an embeddable mixin for types that carry out their own
// acquisition calls at method entry points.
type Checked struct {
	Lockable
}

// Acquire claims the object for ctx in the given mode.
func (ch *Checked) Acquire(ctx *Context, mode amorph.Mode) error {
	return ctx.Acquire(&ch.Lockable, mode)
}
