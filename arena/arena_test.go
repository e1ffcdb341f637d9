package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hookk/amorph"
)

func newTestArena(t *testing.T, workers int) *Arena {
	t.Helper()
	a, err := New(amorph.Config{Workers: workers})
	require.NoError(t, err)
	return a
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(amorph.Config{Workers: -1})
	require.Error(t, err)
	_, err = New(amorph.Config{Workers: 2, PageBatch: 8, LocalPageCap: 4})
	require.Error(t, err)
}

func TestPageRoundTrip(t *testing.T) {
	a := newTestArena(t, 2)

	p := a.PageAlloc(0)
	require.Len(t, p, a.PageSize())
	before := a.FreePages()

	q := a.PageAlloc(0)
	require.Len(t, q, a.PageSize())
	require.Equal(t, before-1, a.FreePages())

	a.PageFree(0, q)
	require.Equal(t, before, a.FreePages(), "free list size not restored")

	a.PageFree(0, p)
}

func TestPagesAreDistinctAndWritable(t *testing.T) {
	a := newTestArena(t, 1)
	p := a.PageAlloc(0)
	q := a.PageAlloc(0)
	require.NotSame(t, &p[0], &q[0])
	p[0], p[len(p)-1] = 1, 2
	q[0], q[len(q)-1] = 3, 4
	require.Equal(t, byte(1), p[0])
	require.Equal(t, byte(3), q[0])
	a.PageFree(0, p)
	a.PageFree(0, q)
}

func TestLocalListDrainsToGlobal(t *testing.T) {
	a, err := New(amorph.Config{Workers: 2, PageBatch: 4, LocalPageCap: 8})
	require.NoError(t, err)

	// Allocate well past the cap on worker 0, free everything, and verify
	// worker 1 can drain pages that flushed to the global pool without
	// touching the OS again. With cap 8, at most 8 pages stay on worker
	// 0's local list, so at least 24 of the 32 reach the global pool.
	var pages [][]byte
	for i := 0; i < 32; i++ {
		pages = append(pages, a.PageAlloc(0))
	}
	grown := a.Stats().OSPages
	for _, p := range pages {
		a.PageFree(0, p)
	}
	for i := 0; i < 24; i++ {
		a.PageAlloc(1)
	}
	require.Equal(t, grown, a.Stats().OSPages, "refill went to the OS instead of the pool")
}

func TestPageFreePanicsOnForeignBlock(t *testing.T) {
	a := newTestArena(t, 1)
	require.Panics(t, func() {
		a.PageFree(0, make([]byte, 7))
	})
}

func TestConcurrentPageChurn(t *testing.T) {
	const workers = 4
	a := newTestArena(t, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for tid := 0; tid < workers; tid++ {
		go func(tid int) {
			defer wg.Done()
			var held [][]byte
			for i := 0; i < 2000; i++ {
				held = append(held, a.PageAlloc(tid))
				if len(held) > 16 {
					for _, p := range held {
						a.PageFree(tid, p)
					}
					held = held[:0]
				}
			}
			for _, p := range held {
				a.PageFree(tid, p)
			}
		}(tid)
	}
	wg.Wait()
	require.EqualValues(t, a.Stats().OSPages, a.FreePages(),
		"pages leaked: everything allocated was freed")
}

func TestLargeRoundTrip(t *testing.T) {
	a := newTestArena(t, 1)
	b := a.LargeAlloc(3*a.PageSize() + 1)
	require.Equal(t, 4*a.PageSize(), len(b), "large block not rounded to pages")
	require.EqualValues(t, len(b), a.Stats().LargeBytes)

	b[0] = 42
	b[len(b)-1] = 43

	a.LargeFree(b)
	require.EqualValues(t, 0, a.Stats().LargeBytes, "large bytes leaked")
}

func TestLargeInterleavedRoundTrip(t *testing.T) {
	a := newTestArena(t, 1)
	b := a.LargeInterleavedAlloc(8 * a.PageSize())
	require.Equal(t, 8*a.PageSize(), len(b))
	require.EqualValues(t, len(b), a.Stats().InterleavedBytes)

	// Touch every page; striping must not affect visibility.
	for off := 0; off < len(b); off += a.PageSize() {
		b[off] = byte(off / a.PageSize())
	}
	for off := 0; off < len(b); off += a.PageSize() {
		require.Equal(t, byte(off/a.PageSize()), b[off])
	}

	a.LargeInterleavedFree(b)
	require.EqualValues(t, 0, a.Stats().InterleavedBytes, "interleaved bytes leaked")
}

func TestLargeAllocPanicsOnBadSize(t *testing.T) {
	a := newTestArena(t, 1)
	require.Panics(t, func() { a.LargeAlloc(0) })
}
