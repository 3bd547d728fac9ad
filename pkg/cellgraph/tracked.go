package cellgraph

// TrackedCell is a Signal used as a field inside a larger user-defined
// struct, per spec.md §4.5's tracked-struct-field pattern: a struct can mix
// plain fields with TrackedCell fields, and only reading a TrackedCell
// field records a dependency — reading a plain field never does, since the
// Runtime has no way to observe it at all.
//
// TrackedCell carries no behavior of its own; it is a type alias so a
// struct embedding it gets exactly Signal's method set.
type TrackedCell[T any] = Signal[T]

// CreateTrackedCell is an alias for CreateSignal, named for use at
// tracked-struct-field call sites.
func CreateTrackedCell[T any](db Database, initial T, opts ...SignalOption) *TrackedCell[T] {
	return CreateSignal(db, initial, opts...)
}
