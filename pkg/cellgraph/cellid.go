package cellgraph

// CellId identifies a Signal, Memo, or MemoMap entry within the Runtime that
// created it. A CellId is only meaningful in the Runtime it came from;
// passing one to a different Runtime panics.
type CellId struct {
	runtime *Runtime
	index   uint64
}

// cellKind distinguishes the two storage shapes a CellMeta can back. Signals
// never recompute; Memos do.
type cellKind int

const (
	kindSignal cellKind = iota
	kindMemo
)

// cellMeta is the type-erased record the Runtime keeps for every cell it
// owns. Signal and Memo store their typed state in their own struct and
// hand the Runtime closures that operate on it, so the Runtime itself never
// needs to know T.
type cellMeta struct {
	kind       cellKind
	durability Durability
	label      string

	// changedAt is the revision at which this cell's observable value last
	// genuinely changed (post backdating, for Memos).
	changedAt Revision
	// verifiedAt is the revision at which this cell was last confirmed
	// fresh (Signals: the revision of their last committed change; Memos: set
	// by the Verifier/recompute).
	verifiedAt Revision

	// dependencies lists the cells this cell's last computation read. Empty
	// for Signals.
	dependencies []CellId

	// minDepDurability is the lowest durability among a Memo's current
	// dependencies (High, i.e. "can't change", for a Memo with none). Used
	// by the Verifier's durability shortcut. Unset/irrelevant for Signals.
	minDepDurability Durability

	// computed reports whether a Memo has run its compute function at least
	// once. The Verifier's durability shortcut must never apply before a
	// Memo's first computation. Unset/irrelevant for Signals.
	computed bool

	// inProgress guards against self-referential and graph cycles. It is
	// shared bookkeeping between the Verifier's frame stack and
	// Memo.recomputeAndCheck's own recursion guard; see verifier.go for the
	// hand-off protocol.
	inProgress bool

	// recomputeAndCheck reruns a Memo's compute function, applies backdating,
	// and reports whether the cell's observable value changed. A non-nil
	// error is always a *CycleError. Nil for Signals.
	recomputeAndCheck func(asOf Revision) (changed bool, cycleErr error)

	// commitPending applies a Signal's staged write, advances changedAt
	// appropriately, and reports whether the observable value changed. Nil
	// for Memos.
	commitPending func(asOf Revision) (changed bool)

	// discardPending clears a Signal's staged write without applying it,
	// used to roll back a batch whose body returned an error. Nil for
	// Memos.
	discardPending func()

	// onChange, if set, is invoked when this cell's value changes: for a
	// Signal, after a successful batch commit; for a Memo, from the recompute
	// that produced the changed value.
	onChange func()
}
