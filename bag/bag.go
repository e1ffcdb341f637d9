// Package bag provides the scalable insertion container: a per-worker
// chunked, append-only collection that iterations push new work items or
// outputs into without contending on a shared collection.
//
// Each worker appends to its own chain of page-sized segments, so Push is
// amortized O(1) and allocation-free on the common path. Traversal visits
// every element across every worker's chain in an unspecified worker
// interleave, preserving each worker's local insertion order, and is only
// safe at a quiescent point: no traversal may run while any worker
// concurrently pushes. There is no element removal; Clear is the only way
// to shrink a bag.
package bag

import (
	"reflect"
	"unsafe"

	"github.com/hookk/amorph/arena"
	"github.com/hookk/amorph/internal"
	"github.com/hookk/amorph/parallel"
	"github.com/hookk/amorph/perthread"
)

type segment[T any] struct {
	next *segment[T] // toward older segments
	data []T
	page []byte // arena page backing data, nil for heap segments
}

// A Bag holds per-worker chains of fixed-capacity segments. Push is safe
// for concurrent use by distinct workers; everything else requires
// quiescence.
//
// Segments for pointer-free element types are carved from arena pages,
// which the garbage collector does not scan. Element types containing
// pointers fall back to page-capacity segments on the Go heap.
type Bag[T any] struct {
	arena  *arena.Arena
	heads  *perthread.Storage[*segment[T]]
	perSeg int
	paged  bool
}

// New returns an empty bag for the given arena and worker count.
func New[T any](a *arena.Arena, workers int) *Bag[T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	paged := size > 0 && size <= a.PageSize() &&
		!internal.TypeHasPointers(reflect.TypeOf(zero))
	perSeg := 1
	if size > 0 && a.PageSize() > size {
		perSeg = a.PageSize() / size
	}
	if !paged && perSeg > 1024 {
		// Zero-size or tiny heap elements: a page-derived capacity would
		// be needlessly huge for a heap slice.
		perSeg = 1024
	}
	return &Bag[T]{
		arena:  a,
		heads:  perthread.New[*segment[T]](workers),
		perSeg: perSeg,
		paged:  paged,
	}
}

// Push appends v to the calling worker's current segment, linking in a new
// segment from the arena when the current one is full.
func (b *Bag[T]) Push(tid int, v T) {
	head := b.heads.Local(tid)
	s := *head
	if s == nil || len(s.data) == cap(s.data) {
		s = b.newSegment(tid)
		s.next = *head
		*head = s
	}
	s.data = append(s.data, v)
}

func (b *Bag[T]) newSegment(tid int) *segment[T] {
	if !b.paged {
		return &segment[T]{data: make([]T, 0, b.perSeg)}
	}
	page := b.arena.PageAlloc(tid)
	data := unsafe.Slice((*T)(unsafe.Pointer(&page[0])), b.perSeg)[:0]
	return &segment[T]{data: data, page: page}
}

// chain returns worker i's segments oldest first, so traversal sees the
// worker's elements in push order.
func (b *Bag[T]) chain(i int) []*segment[T] {
	var segs []*segment[T]
	for s := *b.heads.At(i); s != nil; s = s.next {
		segs = append(segs, s)
	}
	for lo, hi := 0, len(segs)-1; lo < hi; lo, hi = lo+1, hi-1 {
		segs[lo], segs[hi] = segs[hi], segs[lo]
	}
	return segs
}

// ForEach visits every element in the bag: worker by worker in index order,
// each worker's elements in push order. Quiescence required.
func (b *Bag[T]) ForEach(f func(v T)) {
	for i := 0; i < b.heads.Size(); i++ {
		b.ForEachLocal(i, f)
	}
}

// ForEachLocal visits only the elements worker tid pushed, in push order.
// It lets a worker post-process its own output without cross-worker
// synchronization.
func (b *Bag[T]) ForEachLocal(tid int, f func(v T)) {
	for _, s := range b.chain(tid) {
		for _, v := range s.data {
			f(v)
		}
	}
}

// ForEachParallel visits every element with one goroutine batch per group
// of workers. f must be safe for concurrent calls; element order is
// unspecified. Quiescence required.
func (b *Bag[T]) ForEachParallel(f func(v T)) {
	parallel.Range(0, b.heads.Size(), b.heads.Size(), func(low, high int) {
		for i := low; i < high; i++ {
			b.ForEachLocal(i, f)
		}
	})
}

// Len counts the elements in the bag. Quiescence required.
func (b *Bag[T]) Len() int {
	n := 0
	for i := 0; i < b.heads.Size(); i++ {
		for s := *b.heads.At(i); s != nil; s = s.next {
			n += len(s.data)
		}
	}
	return n
}

// Clear releases every segment, returning arena-backed ones to the pool.
// Contained elements are dropped; for heap segments the garbage collector
// reclaims them. Quiescence required.
func (b *Bag[T]) Clear() {
	b.heads.ForEach(func(i int, head **segment[T]) {
		for s := *head; s != nil; s = s.next {
			if s.page != nil {
				b.arena.PageFree(i, s.page)
			}
		}
		*head = nil
	})
}
