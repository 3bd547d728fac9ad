// Package cellgraph provides a pull-based incremental recomputation engine.
//
// Unlike push-based reactive systems, cellgraph never eagerly walks
// downstream subscribers when an input changes. Instead every derived cell
// is verified lazily, on read, against a monotonically increasing logical
// revision clock owned by the Runtime. A derived cell only recomputes when
// it is actually read and at least one of its recorded dependencies has
// genuinely changed value since the cell was last verified.
//
// # Core Types
//
// Signal[T] is an input cell:
//
//	count := cellgraph.CreateSignal(rt, 0)
//	value := count.Get()  // Read (records a dependency if inside a Memo)
//	count.Set(5)          // Commits now; inside a Batch, staged until it ends
//
// Memo[T] is a derived cell, recomputed lazily and backdated when its
// result is unchanged under the configured equality:
//
//	doubled := cellgraph.CreateMemo(rt, func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Recomputes only if a dependency actually changed
//
// MemoMap[K, V] lazily memoizes one Memo[V] per key.
//
// # Batching
//
// All mutation happens inside a Batch. Writes are staged and applied in a
// single commit phase; if the outermost batch body returns an error, staged writes are
// rolled back and the revision clock is left untouched. A panic inside the
// batch body is not recovered — it propagates to the caller and leaves the
// Runtime in a not-further-usable state for that batch, matching the
// "abort" semantics this engine's design documentation describes:
//
//	cellgraph.Batch(rt, func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Thread Safety
//
// cellgraph is explicitly single-threaded and cooperative: a Runtime and
// every cell created from it must be used from one goroutine at a time, with
// no internal locking. This is a deliberate departure from typical reactive
// libraries, which are usually built to be read from many goroutines
// concurrently — see the Concurrency & Resource Model notes in this
// package's design documentation for the rationale.
package cellgraph
