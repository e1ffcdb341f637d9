// Package arena provides the runtime's pooled memory allocator. It serves
// three allocation classes:
//
// Pages: fixed-size blocks of one virtual-memory page, backed by per-worker
// free lists that are refilled from and drained to a global pool in batches,
// so that the shared critical section stays rare. Pages back insertion-bag
// segments and similar per-worker structures.
//
// Large blocks: multi-page contiguous blocks mapped from the OS directly,
// for big structures such as compressed adjacency arrays.
//
// Interleaved blocks: large blocks whose physical pages are striped
// round-robin across NUMA nodes, for read-mostly structures scanned by many
// workers at once, so that no single node's memory bandwidth becomes the
// bottleneck.
//
// Arena memory is invisible to the garbage collector. Callers must not store
// Go pointers in it.
//
// Allocation failure is fatal: the runtime does not support degraded
// operation without memory, since workloads are assumed to have
// admission-controlled, pre-sized inputs.
package arena

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/hookk/amorph"
	"github.com/hookk/amorph/perthread"
	"github.com/hookk/amorph/spin"
)

type freeList struct {
	pages [][]byte
}

// An Arena is a page pool plus large-block allocator sized for a fixed
// worker pool. Per-worker operations take the calling worker's id; large
// operations may be called from any goroutine.
type Arena struct {
	pageSize int
	batch    int
	localCap int

	local *perthread.Storage[freeList]

	lock   spin.Lock
	global [][]byte

	osPages          atomic.Int64
	largeBytes       atomic.Int64
	interleavedBytes atomic.Int64
}

// New returns an arena for the given pool configuration. The page size is
// the OS virtual-memory page size.
func New(cfg amorph.Config) (*Arena, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Arena{
		pageSize: os.Getpagesize(),
		batch:    cfg.PageBatch,
		localCap: cfg.LocalPageCap,
		local:    perthread.New[freeList](cfg.Workers),
	}, nil
}

// PageSize returns the size in bytes of pages returned by PageAlloc.
func (a *Arena) PageSize() int {
	return a.pageSize
}

// PageAlloc returns one page from the calling worker's free list, refilling
// from the global pool, and ultimately the OS, as needed.
func (a *Arena) PageAlloc(tid int) []byte {
	fl := a.local.Local(tid)
	if len(fl.pages) == 0 {
		a.refill(fl)
	}
	n := len(fl.pages) - 1
	p := fl.pages[n]
	fl.pages[n] = nil
	fl.pages = fl.pages[:n]
	return p
}

// PageFree returns a page obtained from PageAlloc to the calling worker's
// free list. The list is drained to the global pool when it grows past the
// configured cap. PageFree panics if p is not an arena page.
func (a *Arena) PageFree(tid int, p []byte) {
	if len(p) != a.pageSize {
		panic(fmt.Sprintf("arena: PageFree of %d bytes, page size is %d", len(p), a.pageSize))
	}
	fl := a.local.Local(tid)
	fl.pages = append(fl.pages, p)
	if len(fl.pages) > a.localCap {
		a.flush(fl)
	}
}

func (a *Arena) refill(fl *freeList) {
	a.lock.With(func() {
		for len(a.global) > 0 && len(fl.pages) < a.batch {
			n := len(a.global) - 1
			fl.pages = append(fl.pages, a.global[n])
			a.global[n] = nil
			a.global = a.global[:n]
		}
	})
	if len(fl.pages) > 0 {
		return
	}
	// Global pool dry: carve a fresh slab from the OS and keep all of it
	// locally. Other workers will hit the same path rather than wait.
	slab := osAlloc(a.batch * a.pageSize)
	a.osPages.Add(int64(a.batch))
	for off := 0; off < len(slab); off += a.pageSize {
		fl.pages = append(fl.pages, slab[off:off+a.pageSize:off+a.pageSize])
	}
}

func (a *Arena) flush(fl *freeList) {
	keep := len(fl.pages) - a.batch
	a.lock.With(func() {
		a.global = append(a.global, fl.pages[keep:]...)
	})
	for i := keep; i < len(fl.pages); i++ {
		fl.pages[i] = nil
	}
	fl.pages = fl.pages[:keep]
}

// FreePages returns the number of pages currently sitting on free lists,
// local and global combined. It is only meaningful at a quiescent point; it
// does not synchronize with workers allocating concurrently.
func (a *Arena) FreePages() int {
	total := 0
	a.lock.With(func() {
		total = len(a.global)
	})
	a.local.ForEach(func(_ int, fl *freeList) {
		total += len(fl.pages)
	})
	return total
}

// LargeAlloc maps a block of at least n bytes directly from the OS. The
// returned slice is rounded up to a whole number of pages; pass the same
// slice to LargeFree at teardown. LargeAlloc panics if n is not positive.
func (a *Arena) LargeAlloc(n int) []byte {
	b := osAlloc(a.roundUp(n))
	a.largeBytes.Add(int64(len(b)))
	return b
}

// LargeFree unmaps a block returned by LargeAlloc.
func (a *Arena) LargeFree(b []byte) {
	a.largeBytes.Add(-int64(len(b)))
	osFree(b)
}

// LargeInterleavedAlloc is LargeAlloc with the block's physical pages
// striped round-robin across NUMA nodes, where the platform supports that.
// Interleaved blocks are allocated once, shared read-mostly by all workers,
// and never freed piecemeal.
func (a *Arena) LargeInterleavedAlloc(n int) []byte {
	b := osAlloc(a.roundUp(n))
	interleave(b)
	a.interleavedBytes.Add(int64(len(b)))
	return b
}

// LargeInterleavedFree unmaps a block returned by LargeInterleavedAlloc.
func (a *Arena) LargeInterleavedFree(b []byte) {
	a.interleavedBytes.Add(-int64(len(b)))
	osFree(b)
}

func (a *Arena) roundUp(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("arena: invalid allocation size: %v", n))
	}
	return (n + a.pageSize - 1) &^ (a.pageSize - 1)
}

// Stats is a snapshot of the arena's allocation accounting.
type Stats struct {
	// OSPages is the total number of pool pages obtained from the OS.
	// Pool pages are never returned to the OS.
	OSPages int64
	// LargeBytes is the number of outstanding LargeAlloc bytes.
	LargeBytes int64
	// InterleavedBytes is the number of outstanding interleaved bytes.
	InterleavedBytes int64
}

// Stats returns a snapshot of the arena's allocation accounting.
func (a *Arena) Stats() Stats {
	return Stats{
		OSPages:          a.osPages.Load(),
		LargeBytes:       a.largeBytes.Load(),
		InterleavedBytes: a.interleavedBytes.Load(),
	}
}
