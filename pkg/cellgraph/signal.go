package cellgraph

import "reflect"

// Signal is an input cell: a value the host application sets directly,
// as opposed to a Memo, whose value is derived from other cells.
//
// All reads and writes go through the Runtime that created the Signal; a
// Signal is only valid for the lifetime of that Runtime.
type Signal[T any] struct {
	rt *Runtime
	id CellId

	value T

	hasPending    bool
	pending       T
	unconditional bool

	equal func(a, b T) bool
}

// SignalOption configures a Signal at construction time. Mirrors the
// teacher's functional-options pattern (signal_options.go), generalized from
// persistence flags to durability/label.
type SignalOption func(*cellOptions)

type cellOptions struct {
	durability Durability
	label      string
}

// WithDurability sets the cell's durability level. Defaults to Low.
func WithDurability(d Durability) SignalOption {
	return func(o *cellOptions) { o.durability = d }
}

// WithLabel attaches a human-readable name to a cell, used in CycleError
// messages and CellInfo. Defaults to a synthetic "#<index>".
func WithLabel(label string) SignalOption {
	return func(o *cellOptions) { o.label = label }
}

func applyCellOptions(opts []SignalOption) cellOptions {
	var o cellOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CreateSignal creates a new input cell holding initial. db is typically a
// bare *Runtime, or a host application type that implements Database.
func CreateSignal[T any](db Database, initial T, opts ...SignalOption) *Signal[T] {
	rt := db.Runtime()
	o := applyCellOptions(opts)
	id := rt.allocateCell(kindSignal, o.durability, o.label)
	s := &Signal[T]{rt: rt, id: id, value: initial}

	m := rt.meta(id)
	m.commitPending = s.commitPending
	m.discardPending = func() {
		s.hasPending = false
		s.unconditional = false
		var zero T
		s.pending = zero
	}
	return s
}

// ID returns the Signal's identity within its Runtime.
func (s *Signal[T]) ID() CellId { return s.id }

// Durability returns the Signal's configured durability level.
func (s *Signal[T]) Durability() Durability {
	return s.rt.meta(s.id).durability
}

// Get returns the Signal's current value and, if called while a Memo is
// computing, records a dependency on this Signal.
func (s *Signal[T]) Get() T {
	s.rt.recordDependency(s.id)
	return s.value
}

// GetResult is equivalent to Get, returning a nil error. It exists so code
// generic over Signal and Memo can call the same method name regardless of
// whether a cycle is possible for the concrete cell type.
func (s *Signal[T]) GetResult() (T, error) {
	return s.Get(), nil
}

// Peek returns the Signal's current value without recording a dependency.
// Supplements spec.md with the teacher's Signal.Peek pattern.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stages a new value for this Signal. If called outside an explicit
// Batch/BatchResult, Set wraps itself in a single-write batch so the change
// commits immediately. If called inside one, the value is staged and
// committed when the outermost batch completes.
//
// The write only produces an observable change — advancing the Runtime's
// revision and the cell's ChangedAt — if the new value is unequal to the
// value that was current when the batch started (revert detection).
func (s *Signal[T]) Set(v T) {
	s.stage(v, false)
	s.rt.autoCommitIfNeeded()
}

// SetUnconditional stages a new value that is always treated as a change on
// commit, bypassing equality comparison. Useful for forcing dependents to
// recompute even when the new value happens to equal the old one (e.g. to
// re-trigger an OnChange side effect).
func (s *Signal[T]) SetUnconditional(v T) {
	s.stage(v, true)
	s.rt.autoCommitIfNeeded()
}

// Update stages the result of applying fn to the Signal's current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.Peek()))
}

func (s *Signal[T]) stage(v T, unconditional bool) {
	s.pending = v
	s.hasPending = true
	s.unconditional = s.unconditional || unconditional
	s.rt.stageCell(s.id)
}

// WithEquals configures a custom equality function, used both for revert
// detection on writes and for backdating comparisons on dependent Memos.
func (s *Signal[T]) WithEquals(fn func(a, b T) bool) *Signal[T] {
	s.equal = fn
	return s
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// commitPending applies a staged write during the batch commit phase. It is
// called once per staged Signal, in Set order, all at the same candidate
// revision.
func (s *Signal[T]) commitPending(asOf Revision) bool {
	if !s.hasPending {
		return false
	}
	old := s.value
	next := s.pending
	changed := s.unconditional || !s.equals(old, next)

	s.value = next
	s.hasPending = false
	s.unconditional = false
	var zero T
	s.pending = zero

	m := s.rt.meta(s.id)
	if changed {
		m.changedAt = asOf
		m.verifiedAt = asOf
		s.rt.markInputChanged(m.durability, asOf)
	}
	return changed
}

// OnChange registers a callback invoked after a batch commits in which this
// Signal's value changed. Only one callback can be registered at a time;
// registering a new one replaces the previous.
func (s *Signal[T]) OnChange(cb func()) {
	s.rt.meta(s.id).onChange = cb
}

// ClearOnChange removes a previously registered OnChange callback.
func (s *Signal[T]) ClearOnChange() {
	s.rt.meta(s.id).onChange = nil
}

// defaultEquals mirrors the teacher's defaultEquals/memoDefaultEquals
// (pkg/vango/signal.go, pkg/vango/memo.go): a fast path for comparable
// scalar kinds via ==, falling back to reflect.DeepEqual for everything
// else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
