package cellgraph

import "context"

// Memo is a derived cell: its value is computed from other cells, cached,
// and only recomputed when a read finds that at least one dependency
// genuinely changed since the cache was last verified.
//
// Memo recomputation is backdated: if a recompute produces a value equal
// (under the configured equality) to the cached one, the cached value and
// its ChangedAt revision are both left untouched, so a Memo that depends on
// this Memo sees no change and can skip its own recompute in turn.
type Memo[T any] struct {
	rt      *Runtime
	id      CellId
	compute func() T

	hasValue bool
	value    T

	equal func(a, b T) bool
}

// MemoOption configures a Memo or MemoMap at construction time. Unlike
// SignalOption, it has no durability knob: a Memo's durability is always
// derived from its dependencies' durabilities (spec.md §3), never set
// directly (spec.md §6's configuration table lists durability as Signal-only).
type MemoOption func(*cellOptions)

// WithMemoLabel attaches a human-readable name to a Memo or MemoMap, used in
// CycleError messages and CellInfo. Defaults to a synthetic "#<index>".
func WithMemoLabel(label string) MemoOption {
	return func(o *cellOptions) { o.label = label }
}

func applyMemoOptions(opts []MemoOption) cellOptions {
	var o cellOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CreateMemo creates a new derived cell. compute is not run until the first
// Get/GetResult call. db is typically a bare *Runtime, or a host
// application type that implements Database.
func CreateMemo[T any](db Database, compute func() T, opts ...MemoOption) *Memo[T] {
	rt := db.Runtime()
	o := applyMemoOptions(opts)
	id := rt.allocateCell(kindMemo, High, o.label)
	m := &Memo[T]{rt: rt, id: id, compute: compute}
	rt.meta(id).recomputeAndCheck = m.recomputeAndCheck
	return m
}

// ID returns the Memo's identity within its Runtime.
func (m *Memo[T]) ID() CellId { return m.id }

// Get returns the Memo's up-to-date value, recomputing it and any stale
// dependency first if needed. It panics with a *CycleError if computing the
// value would require the Memo to (directly or transitively) depend on
// itself; use GetResult to handle that case without a panic.
func (m *Memo[T]) Get() T {
	v, err := m.GetResult()
	if err != nil {
		panic(err)
	}
	return v
}

// GetResult is like Get, but returns a *CycleError instead of panicking
// when computing the value would require a self-dependency.
func (m *Memo[T]) GetResult() (T, error) {
	// Dependency is recorded only after ensureFresh succeeds: a cycle error
	// must never leave a spurious self-edge on the caller's tracking frame,
	// or a Memo that catches its own cycle via GetResult would accrete one
	// and falsely report a cycle on every later read (spec.md §4.8).
	if err := m.rt.ensureFresh(m.id); err != nil {
		var zero T
		return zero, err
	}
	m.rt.recordDependency(m.id)
	return m.value, nil
}

// Peek returns the Memo's last-computed value without recording a
// dependency and without verifying freshness. Intended for diagnostics;
// prefer Get/GetResult for anything that should stay consistent with the
// current revision.
func (m *Memo[T]) Peek() T {
	return m.value
}

// IsUpToDate reports whether the Memo's cached value is already verified
// fresh as of the Runtime's current revision, without performing any
// verification work itself.
func (m *Memo[T]) IsUpToDate() bool {
	meta := m.rt.meta(m.id)
	return meta.computed && meta.verifiedAt == m.rt.current
}

// Dependencies returns the cells this Memo read the last time it computed.
func (m *Memo[T]) Dependencies() []CellId {
	deps := m.rt.meta(m.id).dependencies
	out := make([]CellId, len(deps))
	copy(out, deps)
	return out
}

// ChangedAt returns the revision at which this Memo's value last genuinely
// changed.
func (m *Memo[T]) ChangedAt() Revision {
	return m.rt.meta(m.id).changedAt
}

// VerifiedAt returns the revision at which this Memo was last confirmed
// fresh, whether or not it needed to recompute.
func (m *Memo[T]) VerifiedAt() Revision {
	return m.rt.meta(m.id).verifiedAt
}

// Durability returns the min of this Memo's current dependencies'
// durabilities (High, i.e. "can't change", before the Memo has computed at
// least once).
func (m *Memo[T]) Durability() Durability {
	return m.rt.meta(m.id).durability
}

// WithEquals configures a custom equality function, used to decide whether
// a freshly computed value counts as a change (see backdating in the type
// doc comment).
func (m *Memo[T]) WithEquals(fn func(a, b T) bool) *Memo[T] {
	m.equal = fn
	return m
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

// OnChange registers a callback invoked when a recompute of this Memo
// produces a value unequal to the cached one, including its first
// computation (when there is no cached value yet). Recomputes only happen
// when something reads the Memo, so a Memo that is never read never fires it.
func (m *Memo[T]) OnChange(cb func()) {
	m.rt.meta(m.id).onChange = cb
}

// ClearOnChange removes a previously registered OnChange callback.
func (m *Memo[T]) ClearOnChange() {
	m.rt.meta(m.id).onChange = nil
}

// recomputeAndCheck implements spec.md §4.3.1: run compute while tracking
// its dependencies, then decide under the Memo's equality whether the
// result counts as a change. It is only ever invoked by the Verifier
// (verifier.go), never called directly by Get/GetResult.
func (m *Memo[T]) recomputeAndCheck(asOf Revision) (bool, error) {
	return traceRecompute(context.Background(), m.rt, cellLabel(m.rt, m.id), func() (bool, error) {
		return m.doRecompute(asOf)
	})
}

func (m *Memo[T]) doRecompute(asOf Revision) (bool, error) {
	meta := m.rt.meta(m.id)
	meta.inProgress = true
	m.rt.pushTracking(m.id)

	var newValue T
	var caught any
	func() {
		defer func() {
			if r := recover(); r != nil {
				caught = r
			}
		}()
		newValue = m.compute()
	}()
	deps := m.rt.popTracking()
	meta.inProgress = false

	if caught != nil {
		if cycleErr, ok := caught.(*CycleError); ok {
			if m.rt.Metrics != nil {
				m.rt.Metrics.observeCycle()
			}
			if m.rt.Logger != nil {
				m.rt.Logger.Warn("cellgraph: cycle detected", "cell", cellLabel(m.rt, m.id), "path", cycleErr.FormatPath())
			}
			return false, cycleErr
		}
		// A genuine user panic from compute. Not a cycle, and not
		// recoverable here: see DESIGN.md's Open Question resolution.
		panic(caught)
	}

	meta.dependencies = deps
	meta.minDepDurability = computeMinDurability(m.rt, deps)
	// A Memo's own durability is always the min of its current dependencies'
	// durabilities (spec.md §3), never a value the caller supplies directly.
	meta.durability = meta.minDepDurability
	meta.computed = true
	meta.verifiedAt = asOf

	changed := !m.hasValue || !m.equals(m.value, newValue)
	if changed {
		m.value = newValue
		m.hasValue = true
		meta.changedAt = asOf
		if meta.onChange != nil {
			meta.onChange()
		}
		// No separate global notification here: this recompute is only
		// possible because some Signal commit already advanced the Runtime
		// to the current revision, and that commit's own commitStaged
		// already fired the global OnChange once for this revision.
	}
	// Backdating: when unchanged, the previously cached value and ChangedAt
	// are left exactly as they were, even though compute just ran again.

	if m.rt.Metrics != nil {
		m.rt.Metrics.observeRecompute()
	}
	return changed, nil
}
