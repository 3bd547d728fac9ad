package cellgraph

import "log/slog"

// activeQuery is one frame of the Runtime's explicit tracking stack: the
// cell currently being computed, and the dependencies it has recorded so
// far. Unlike the teacher's goroutine-keyed ambient tracking context, this
// stack lives directly on the Runtime, matching the engine's single-threaded,
// explicit-object contract.
type activeQuery struct {
	cell CellId
	deps []CellId
}

// Runtime owns every cell's metadata, the current logical revision, and the
// explicit dependency-tracking stack used while a Memo is computing.
//
// A Runtime is not safe for concurrent use; see the package doc's Thread
// Safety section.
type Runtime struct {
	cells   []cellMeta
	current Revision

	// durabilityLastChanged[l] is the highest revision at which any Input
	// write at durability >= l took effect. The Verifier uses this as a
	// shortcut: if a Memo's minimum dependency durability is l and
	// durabilityLastChanged[l] <= memo.verifiedAt, nothing the Memo could
	// depend on changed and the whole dependency walk can be skipped.
	durabilityLastChanged [durabilityCount]Revision

	tracking []activeQuery

	batchDepth int
	staged     []CellId // cells with a staged write in the current outermost batch, in Set order
	stagedSet  map[uint64]bool

	// Logger is used for two diagnostic events: cycle detection and batch
	// rollback. NewRuntime sets it to slog.Default(); a nil Logger disables
	// logging. Never used on the read/verify hot path.
	Logger *slog.Logger

	// Metrics, if non-nil, receives counters for recomputations,
	// verifications, durability shortcuts, and cycles. See metrics.go.
	Metrics *Metrics

	// Tracer, if non-nil, wraps Memo recomputation and batch commit in
	// spans. See tracing.go.
	Tracer Tracer

	globalOnChange func()
}

// NewRuntime creates an empty Runtime at revision Zero.
func NewRuntime() *Runtime {
	return &Runtime{
		stagedSet: make(map[uint64]bool),
		Logger:    slog.Default(),
	}
}

// CurrentRevision returns the Runtime's current logical revision.
func (rt *Runtime) CurrentRevision() Revision {
	return rt.current
}

// CellCount returns the number of cells the Runtime has allocated. Purely a
// diagnostic accessor, in the spirit of the teacher's Owner.MemoryUsage.
func (rt *Runtime) CellCount() int {
	return len(rt.cells)
}

// allocateCell reserves a new cellMeta slot and returns its id.
func (rt *Runtime) allocateCell(kind cellKind, durability Durability, label string) CellId {
	id := CellId{runtime: rt, index: uint64(len(rt.cells))}
	rt.cells = append(rt.cells, cellMeta{
		kind:       kind,
		durability: durability,
		label:      label,
	})
	return id
}

func (rt *Runtime) meta(id CellId) *cellMeta {
	rt.checkOwner(id)
	return &rt.cells[id.index]
}

func (rt *Runtime) checkOwner(id CellId) {
	if id.runtime != rt {
		panic(errForeignCell)
	}
}

// pushTracking opens a new dependency-recording frame for cell id.
func (rt *Runtime) pushTracking(id CellId) {
	rt.tracking = append(rt.tracking, activeQuery{cell: id})
}

// popTracking closes the current frame and returns the dependencies it
// recorded.
func (rt *Runtime) popTracking() []CellId {
	n := len(rt.tracking)
	frame := rt.tracking[n-1]
	rt.tracking = rt.tracking[:n-1]
	return frame.deps
}

// recordDependency records that the cell currently being computed (if any)
// read id. Outside of any tracking frame — e.g. inside Untracked, or a bare
// top-level Get — this is a no-op, matching the teacher's
// getCurrentListener-is-nil convention.
func (rt *Runtime) recordDependency(id CellId) {
	n := len(rt.tracking)
	if n == 0 {
		return
	}
	frame := &rt.tracking[n-1]
	for _, d := range frame.deps {
		if d == id {
			return
		}
	}
	frame.deps = append(frame.deps, id)
}

// suspendTracking clears the active tracking stack for the duration of an
// untracked read and returns a closure that restores it.
func (rt *Runtime) suspendTracking() func() {
	saved := rt.tracking
	rt.tracking = nil
	return func() { rt.tracking = saved }
}

// Untracked runs fn without recording any dependency edges for cells it
// reads, even if called from inside a Memo's compute function. Supplements
// spec.md with the teacher's Untracked/Peek pattern (pkg/vango/batch.go).
// db is typically a bare *Runtime, or a host application type that
// implements Database.
func Untracked(db Database, fn func()) {
	rt := db.Runtime()
	restore := rt.suspendTracking()
	defer restore()
	fn()
}

// markInputChanged records that a write at the given durability took effect
// at revision asOf, advancing the per-level "last changed" clocks from Low
// up to and including durability.
func (rt *Runtime) markInputChanged(durability Durability, asOf Revision) {
	for l := Low; l <= durability; l++ {
		if asOf > rt.durabilityLastChanged[l] {
			rt.durabilityLastChanged[l] = asOf
		}
	}
}

// fireOnChange invokes a cell's registered OnChange callback, if any. Called
// only after a batch has fully committed, so callbacks never observe a
// partially-applied batch.
func (rt *Runtime) fireOnChange(id CellId) {
	cb := rt.meta(id).onChange
	if cb != nil {
		cb()
	}
}

// SetOnChange registers a callback fired exactly once after a batch commit
// in which at least one staged Signal genuinely changed (zero times if
// revert detection suppressed the commit entirely). Registering a new
// callback replaces any previously registered one.
func (rt *Runtime) SetOnChange(cb func()) {
	rt.globalOnChange = cb
}

// ClearOnChange removes a previously registered global OnChange callback.
func (rt *Runtime) ClearOnChange() {
	rt.globalOnChange = nil
}

// notifyGlobalOnChange fires the global OnChange callback, if registered.
// Called exactly once per batch commit that produced at least one genuine
// Signal change, satisfying the "at most once per committed revision"
// guarantee: a revision only ever advances from inside commitStaged, and
// commitStaged calls this at most once per call.
func (rt *Runtime) notifyGlobalOnChange() {
	if rt.globalOnChange != nil {
		rt.globalOnChange()
	}
}

// CellInfo is a read-only diagnostic snapshot of one cell's metadata,
// returned by Runtime.Info. It never triggers verification or
// recomputation.
type CellInfo struct {
	ID           CellId
	Label        string
	Durability   Durability
	ChangedAt    Revision
	VerifiedAt   Revision
	Dependencies []CellId
	NumDeps      int
	IsMemo       bool
}

// Info returns a diagnostic snapshot of id's current metadata.
func (rt *Runtime) Info(id CellId) CellInfo {
	m := rt.meta(id)
	deps := make([]CellId, len(m.dependencies))
	copy(deps, m.dependencies)
	return CellInfo{
		ID:           id,
		Label:        m.label,
		Durability:   m.durability,
		ChangedAt:    m.changedAt,
		VerifiedAt:   m.verifiedAt,
		Dependencies: deps,
		NumDeps:      len(deps),
		IsMemo:       m.kind == kindMemo,
	}
}
