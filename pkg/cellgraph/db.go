package cellgraph

// Database is the capability spec.md §6 describes: "an interface with a
// single method returning the Runtime". A host application wraps a
// *Runtime inside its own type (typically embedding it alongside
// application-specific state) and implements this one method so the
// package-level constructors below — CreateSignal, CreateMemo,
// CreateMemoMap, CreateTrackedCell, Batch, BatchResult — can be called with
// either a bare *Runtime or the host's own database type.
type Database interface {
	Runtime() *Runtime
}

// Runtime returns rt itself, so a bare *Runtime already satisfies Database
// without any host wrapper type being required.
func (rt *Runtime) Runtime() *Runtime { return rt }

var _ Database = (*Runtime)(nil)
