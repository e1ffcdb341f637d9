// Package term implements distributed termination detection with the
// Dijkstra dual-ring token algorithm. It lets the parallel engine discover,
// without a shared work counter, that all workers are simultaneously idle
// and no more work will appear.
//
// Workers form a directed ring carrying at most one token. Each worker is
// colored black after doing work and whitened when it passes the token on;
// the token itself blackens when it passes through a black worker. Worker 0
// launches white probe tokens, and global termination is declared when a
// probe survives two consecutive full circuits white: no worker performed
// work during a whole lap, and since idle workers produce nothing, no work
// can appear anywhere.
//
// The detector is loop-scoped: Reset reinitializes it for the next parallel
// loop invocation.
package term

import (
	"fmt"
	"sync/atomic"

	"github.com/hookk/amorph/perthread"
)

// Per-worker token state. All fields are atomics because the ring hands
// them across workers; the handoff order in pass provides the visibility
// the protocol needs.
type tokenHolder struct {
	tokenIsBlack   atomic.Bool
	hasToken       atomic.Bool
	processIsBlack atomic.Bool
}

// A Detector tracks quiescence for a fixed ring of workers.
type Detector struct {
	holders *perthread.Storage[tokenHolder]
	workers int

	globalTerm atomic.Bool

	// Whether worker 0's last outgoing probe was white. Only worker 0
	// touches this, always from inside its own LocalTermination.
	lastWasWhite bool
}

// New returns a detector for a ring of the given number of workers. New
// panics if workers is not positive.
func New(workers int) *Detector {
	if workers <= 0 {
		panic(fmt.Sprintf("term: invalid worker count: %v", workers))
	}
	d := &Detector{
		holders: perthread.New[tokenHolder](workers),
		workers: workers,
	}
	d.Reset()
	return d
}

// Workers returns the size of the ring.
func (d *Detector) Workers() int {
	return d.workers
}

// Reset reinitializes the detector for the next parallel loop: every worker
// starts black (presumed to have work), and worker 0 is seeded with the
// ring's only token, colored black so that the first circuit cannot
// spuriously report termination.
func (d *Detector) Reset() {
	d.holders.ForEach(func(i int, th *tokenHolder) {
		th.tokenIsBlack.Store(i == 0)
		th.hasToken.Store(i == 0)
		th.processIsBlack.Store(true)
	})
	d.lastWasWhite = false
	d.globalTerm.Store(false)
}

// WorkHappened records that the calling worker performed work since it last
// passed the token. Workers call it after completing each work item.
func (d *Detector) WorkHappened(tid int) {
	d.holders.Local(tid).processIsBlack.Store(true)
}

// LocalTermination is called by a worker whenever it finds its local work
// queue empty. If the worker holds the token it recolors and passes it;
// worker 0 additionally checks whether a probe has proven global
// quiescence. The call is cheap when the worker does not hold the token.
func (d *Detector) LocalTermination(tid int) {
	if d.globalTerm.Load() {
		return
	}
	th := d.holders.Local(tid)
	if !th.hasToken.Load() {
		return
	}

	// A lone worker has no ring to probe: if it is idle, no other
	// producer exists, so the worklist is provably empty everywhere.
	if d.workers == 1 {
		d.globalTerm.Store(true)
		return
	}

	if tid == 0 {
		// A probe completed its circuit. It proves quiescence only if
		// it stayed white all the way around and this worker did no
		// work either, twice in a row.
		failed := th.tokenIsBlack.Load() || th.processIsBlack.Load()
		if d.lastWasWhite && !failed {
			d.globalTerm.Store(true)
			return
		}
		d.lastWasWhite = !failed
		// Relaunch a white probe.
		d.pass(th, d.holders.At(1), false)
		return
	}

	// The token leaves black if this worker worked since it last passed
	// the token, or if it arrived black.
	black := th.tokenIsBlack.Load() || th.processIsBlack.Load()
	d.pass(th, d.holders.At((tid+1)%d.workers), black)
}

// pass hands the token from one holder to the next, whitening the sender.
// hasToken is the last store on both sides so that a receiver observing the
// token also observes its color.
func (d *Detector) pass(from, to *tokenHolder, black bool) {
	from.processIsBlack.Store(false)
	from.tokenIsBlack.Store(false)
	from.hasToken.Store(false)
	to.tokenIsBlack.Store(black)
	to.hasToken.Store(true)
}

// GlobalTermination reports whether global termination has been detected.
// It only ever transitions false to true between Resets.
func (d *Detector) GlobalTermination() bool {
	return d.globalTerm.Load()
}
