// Package perthread provides fixed-size per-worker storage: one private slot
// of a caller-chosen type per worker, with an accessor for the calling
// worker's slot and indexed access to any worker's slot for cross-worker
// aggregation.
//
// Go has no thread-local storage, so "the calling worker" is identified by
// an explicit small integer id handed to each worker goroutine by whoever
// owns the pool. The id is fixed for the lifetime of the worker and flows
// through every runtime component that keeps per-worker state.
package perthread

import "fmt"

// Slots are padded so that workers updating adjacent slots do not share a
// cache line.
type slot[T any] struct {
	v T
	_ [64]byte
}

// A Storage holds one value of type T per worker, indexed 0..Size()-1. The
// slots are distinct, non-aliasing memory; any synchronization needed to
// read another worker's slot while that worker writes it is the caller's
// responsibility, beyond what atomics in T itself provide.
type Storage[T any] struct {
	slots []slot[T]
}

// New returns storage with one zero-valued slot per worker. The size is
// fixed for the lifetime of the storage. New panics if workers is not
// positive.
func New[T any](workers int) *Storage[T] {
	if workers <= 0 {
		panic(fmt.Sprintf("perthread: invalid worker count: %v", workers))
	}
	return &Storage[T]{slots: make([]slot[T], workers)}
}

// Size returns the number of slots.
func (s *Storage[T]) Size() int {
	return len(s.slots)
}

// Local returns a pointer to the calling worker's slot. tid must be the
// caller's own worker id; passing another worker's id silently yields that
// worker's slot instead, which is almost never what the caller wants.
func (s *Storage[T]) Local(tid int) *T {
	return &s.slots[tid].v
}

// At returns a pointer to worker i's slot. It is usable from any goroutine,
// for example during termination detection or reductions over per-worker
// state.
func (s *Storage[T]) At(i int) *T {
	return &s.slots[i].v
}

// ForEach calls f with each worker index and slot in index order. It is
// intended for aggregation at quiescent points.
func (s *Storage[T]) ForEach(f func(i int, p *T)) {
	for i := range s.slots {
		f(i, &s.slots[i].v)
	}
}
