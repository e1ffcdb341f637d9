// Package parallel provides minimal fork-join loop drivers. The runtime's
// engine does not schedule work itself; these functions are the collaborator
// surface that sequences calls into it, used by tests, examples, and
// quiescent bag traversal. A production scheduler with work stealing can
// replace them without touching the engine.
package parallel

import (
	"sync"

	"github.com/hookk/amorph/internal"
)

// Workers runs f(tid) on n goroutines with worker ids 0..n-1 and returns
// when all of them have terminated. It is the fixed-pool surface the
// runtime's per-worker components expect: each invocation's goroutine owns
// its id for the duration of f.
func Workers(n int, f func(tid int)) {
	var wg sync.WaitGroup
	wg.Add(n)
	for tid := 0; tid < n; tid++ {
		go func(tid int) {
			defer wg.Done()
			f(tid)
		}(tid)
	}
	wg.Wait()
}

// Do receives zero or more thunks and executes them in parallel, returning
// only when all of them have terminated.
//
// If one or more thunks panic, the corresponding goroutines recover the
// panics, and Do panics with the left-most recovered panic value.
func Do(thunks ...func()) {
	switch len(thunks) {
	case 0:
		return
	case 1:
		thunks[0]()
		return
	}
	half := len(thunks) / 2
	var p interface{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer func() {
			p = internal.WrapPanic(recover())
			wg.Done()
		}()
		Do(thunks[half:]...)
	}()
	Do(thunks[:half]...)
	wg.Wait()
	if p != nil {
		panic(p)
	}
}

// Range divides the half-open interval from low to high into n batches and
// invokes f for each batch in parallel, returning when all invocations have
// terminated. If n is 0, a default based on runtime.GOMAXPROCS(0) is used.
//
// Range panics if high < low or n < 0. Panics in f are propagated like Do.
func Range(low, high, n int, f func(low, high int)) {
	var recur func(int, int, int)
	recur = func(low, high, n int) {
		if n == 1 {
			f(low, high)
			return
		}
		batchSize := ((high - low - 1) / n) + 1
		half := n / 2
		mid := low + batchSize*half
		if mid >= high {
			f(low, high)
			return
		}
		var p interface{}
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer func() {
				p = internal.WrapPanic(recover())
				wg.Done()
			}()
			recur(mid, high, n-half)
		}()
		recur(low, mid, half)
		wg.Wait()
		if p != nil {
			panic(p)
		}
	}
	recur(low, high, internal.ComputeNofBatches(low, high, n))
}

// ErrRange is Range for batch functions that can fail. It returns the
// left-most error value that is different from nil, after all invocations
// have terminated.
func ErrRange(low, high, n int, f func(low, high int) error) error {
	var recur func(int, int, int) error
	recur = func(low, high, n int) error {
		if n == 1 {
			return f(low, high)
		}
		batchSize := ((high - low - 1) / n) + 1
		half := n / 2
		mid := low + batchSize*half
		if mid >= high {
			return f(low, high)
		}
		var err1 error
		var p interface{}
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer func() {
				p = internal.WrapPanic(recover())
				wg.Done()
			}()
			err1 = recur(mid, high, n-half)
		}()
		err0 := recur(low, mid, half)
		wg.Wait()
		if p != nil {
			panic(p)
		}
		if err0 != nil {
			return err0
		}
		return err1
	}
	return recur(low, high, internal.ComputeNofBatches(low, high, n))
}
