package cellgraph

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle detected while verifying or
// recomputing a Memo. It is returned, not panicked, because a cycle is a
// recoverable condition the caller can choose how to handle (fall back to a
// default, surface it to a user, etc.) — unlike a foreign CellId or
// unbalanced batch, which indicate programmer error.
type CycleError struct {
	rt   *Runtime
	path []CellId
}

func (e *CycleError) Error() string {
	return "cellgraph: cycle detected: " + e.FormatPath()
}

// Cell returns the cell that closed the loop — the one read again while its
// own computation was still in progress. It is the last element of Path.
func (e *CycleError) Cell() CellId {
	return e.path[len(e.path)-1]
}

// Path returns the chain of cells from the cycle's root back to the cell
// that closed the loop, in traversal order. The first and last elements
// refer to the same cell.
func (e *CycleError) Path() []CellId {
	out := make([]CellId, len(e.path))
	copy(out, e.path)
	return out
}

// cellLabel returns a cell's configured label, or a synthetic "#<index>" if
// it has none.
func cellLabel(rt *Runtime, id CellId) string {
	label := rt.meta(id).label
	if label != "" {
		return label
	}
	return fmt.Sprintf("#%d", id.index)
}

// FormatPath renders the cycle as "a -> b -> c -> a", truncating the middle
// of long cycles to "a -> b -> ... -> y -> a" once the formatted path would
// exceed 20 segments, so a pathological cycle doesn't flood a log line.
func (e *CycleError) FormatPath() string {
	const maxSegments = 20

	labels := make([]string, len(e.path))
	for i, id := range e.path {
		labels[i] = cellLabel(e.rt, id)
	}

	if len(labels) <= maxSegments {
		return strings.Join(labels, " -> ")
	}

	head := labels[:maxSegments/2]
	tail := labels[len(labels)-maxSegments/2:]
	return strings.Join(head, " -> ") + " -> ... -> " + strings.Join(tail, " -> ")
}

// newCycleError builds a CycleError for a cell discovered, via
// Runtime.ensureFresh's inProgress check, to have re-entered its own
// recomputation during first-time computation (spec.md §4.3.1): the path is
// the Runtime's current tracking stack — every cell whose compute function
// is still on the call stack, from the one that closed the loop down to the
// innermost caller — plus cell again to close it.
func newCycleError(rt *Runtime, cell CellId) *CycleError {
	return newCycleErrorFromFrames(rt, trackingCellIDs(rt), cell)
}

// trackingCellIDs returns the cell ids on the Runtime's active
// dependency-tracking stack, outermost first.
func trackingCellIDs(rt *Runtime) []CellId {
	ids := make([]CellId, len(rt.tracking))
	for i, f := range rt.tracking {
		ids[i] = f.cell
	}
	return ids
}

// newCycleErrorFromFrames builds a CycleError from the Verifier's frame
// stack at the point a cycle was detected, plus the cell that closed it.
func newCycleErrorFromFrames(rt *Runtime, frames []CellId, closing CellId) *CycleError {
	path := make([]CellId, 0, len(frames)+1)
	started := false
	for _, f := range frames {
		if f == closing {
			started = true
		}
		if started {
			path = append(path, f)
		}
	}
	if !started {
		path = append(path, closing)
	}
	path = append(path, closing)
	return &CycleError{rt: rt, path: path}
}
