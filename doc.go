// Package amorph is a runtime for exploiting amorphous data-parallelism:
// parallel iteration over unordered worklists of irregular work items (graph
// nodes, tree nodes, tuples) whose conflicts on shared mutable state are only
// discovered while they execute. Worker goroutines pull items from a shared,
// dynamically growing workset, execute each item's operation optimistically,
// detect conflicting accesses to shared objects, and retry or commit, without
// a centralized scheduler bottleneck.
//
// The root package holds the types shared by the concern packages: access
// modes for conflict-checked acquisition, the error taxonomy, and the worker
// pool configuration.
//
// Amorph provides the following subpackages:
//
// amorph/conflict provides the per-object conflict-detection protocol:
// lockable objects, per-iteration execution contexts, ownership acquisition
// with configurable access modes, and bulk release on commit or abort.
//
// amorph/term provides distributed termination detection for work-stealing
// and diffusing computations, using the Dijkstra dual-ring token algorithm.
//
// amorph/perthread provides fixed per-worker storage with accessors for the
// calling worker's slot and for any worker's slot.
//
// amorph/arena provides page-granularity memory allocation with per-worker
// free lists fed by a global pool, plus large and NUMA-interleaved block
// allocation for structures shared read-mostly across workers.
//
// amorph/bag provides the scalable insertion container used by iterations to
// produce new work items or outputs without contending on a shared
// collection.
//
// amorph/spin provides the spin lock and backoff primitives everything above
// them is built on.
//
// amorph/parallel provides minimal fork-join loop drivers. The runtime does
// not ship a work-stealing scheduler; these drivers are the collaborator
// surface used by tests, examples, and quiescent bag traversal.
//
// amorph/diag provides the serialized leveled diagnostics sink.
package amorph
