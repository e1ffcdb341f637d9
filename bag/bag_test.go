package bag

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hookk/amorph"
	"github.com/hookk/amorph/arena"
	"github.com/hookk/amorph/parallel"
)

func newTestArena(t *testing.T, workers int) *arena.Arena {
	t.Helper()
	a, err := arena.New(amorph.Config{Workers: workers})
	require.NoError(t, err)
	return a
}

func TestPushAndLocalOrder(t *testing.T) {
	a := newTestArena(t, 2)
	b := New[int](a, 2)

	// Push enough on worker 0 to spill across several segments.
	n := 3*a.PageSize()/8 + 5
	for i := 0; i < n; i++ {
		b.Push(0, i)
	}
	b.Push(1, -1)

	var got []int
	b.ForEachLocal(0, func(v int) {
		got = append(got, v)
	})
	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v, "local traversal must preserve push order")
	}

	require.Equal(t, n+1, b.Len())
}

func TestFullTraversalVisitsEachElementOnce(t *testing.T) {
	const (
		workers = 4
		perW    = 10000
	)
	a := newTestArena(t, workers)
	b := New[int32](a, workers)

	parallel.Workers(workers, func(tid int) {
		for i := 0; i < perW; i++ {
			b.Push(tid, int32(tid*perW+i))
		}
	})

	seen := make([]int, workers*perW)
	b.ForEach(func(v int32) {
		seen[v]++
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("element %d visited %d times", i, c)
		}
	}
}

func TestForEachParallel(t *testing.T) {
	const workers = 4
	a := newTestArena(t, workers)
	b := New[int](a, workers)

	parallel.Workers(workers, func(tid int) {
		for i := 0; i < 5000; i++ {
			b.Push(tid, 1)
		}
	})

	var sum atomic.Int64
	b.ForEachParallel(func(v int) {
		sum.Add(int64(v))
	})
	require.EqualValues(t, workers*5000, sum.Load())
}

func TestClearReturnsPagesToArena(t *testing.T) {
	a := newTestArena(t, 1)
	before := a.FreePages()

	b := New[uint64](a, 1)
	for i := 0; i < 4*a.PageSize()/8; i++ {
		b.Push(0, uint64(i))
	}
	require.Greater(t, a.Stats().OSPages, int64(0))

	b.Clear()
	require.Equal(t, 0, b.Len())
	require.GreaterOrEqual(t, a.FreePages(), before, "segments not returned to the pool")
	require.EqualValues(t, a.Stats().OSPages, a.FreePages(),
		"after Clear every pool page is free again")

	// The bag is reusable after Clear.
	b.Push(0, 7)
	require.Equal(t, 1, b.Len())
	b.Clear()
}

func TestPointerElementsUseHeapSegments(t *testing.T) {
	a := newTestArena(t, 1)
	osPagesBefore := a.Stats().OSPages

	b := New[*int](a, 1)
	vals := make([]int, 3000)
	for i := range vals {
		vals[i] = i
		b.Push(0, &vals[i])
	}
	require.Equal(t, osPagesBefore, a.Stats().OSPages,
		"pointer-carrying elements must not land in unscanned arena pages")

	i := 0
	b.ForEachLocal(0, func(p *int) {
		require.Equal(t, i, *p)
		i++
	})
	require.Equal(t, len(vals), i)
	b.Clear()
}

func TestEmptyBag(t *testing.T) {
	a := newTestArena(t, 3)
	b := New[float64](a, 3)
	require.Equal(t, 0, b.Len())
	b.ForEach(func(float64) {
		t.Fatal("empty bag visited an element")
	})
	b.Clear()
}
