package cellgraph

import "context"

// stageCell records that id has a staged write pending for the current
// outermost batch, so the commit/rollback phase knows which cells to visit
// without scanning every cell the Runtime owns.
func (rt *Runtime) stageCell(id CellId) {
	if rt.stagedSet[id.index] {
		return
	}
	rt.stagedSet[id.index] = true
	rt.staged = append(rt.staged, id)
}

// autoCommitIfNeeded lets Signal.Set/SetUnconditional commit immediately
// when called outside an explicit Batch, by wrapping the already-staged
// write in a zero-body batch.
func (rt *Runtime) autoCommitIfNeeded() {
	if rt.batchDepth == 0 {
		_ = BatchResult(rt, func() error { return nil })
	}
}

// Batch groups zero or more Signal writes into a single commit. Writes
// staged anywhere inside fn — directly, or inside a nested Batch/BatchResult
// — are applied together when the outermost batch returns, at a single new
// revision if at least one of them produced a genuine change.
//
// Batch assumes fn cannot fail. Use BatchResult when the batch body can
// detect an error partway through and needs every staged write discarded.
// db is typically a bare *Runtime, or a host application type that
// implements Database.
func Batch(db Database, fn func()) {
	_ = BatchResult(db, func() error {
		fn()
		return nil
	})
}

// BatchResult runs fn as a batch body and commits its staged writes only if
// fn returns nil. If the outermost batch's fn returns a non-nil error, every
// write staged during the batch — including by nested Batch/BatchResult
// calls — is discarded and the Runtime's revision is left untouched;
// BatchResult returns that error to the caller. A nested BatchResult whose fn
// returns an error discards nothing itself: it returns the error to the
// enclosing body, and its writes stay staged, committed or discarded
// together with the outermost batch.
//
// A panic from fn (a fatal invariant violation, or a user compute function
// panicking) is never recovered: it propagates directly out of BatchResult,
// and the Runtime is left with its batch depth still incremented. This
// mirrors spec.md's documented MoonBit-abort semantics rather than
// presenting a recovery path that cannot actually restore per-cell
// bookkeeping consistently; see DESIGN.md's Open Question resolution.
func BatchResult(db Database, fn func() error) error {
	rt := db.Runtime()
	rt.batchDepth++
	bodyErr := fn()
	rt.batchDepth--
	if rt.batchDepth < 0 {
		panic(errUnbalancedBatch)
	}
	if rt.batchDepth > 0 {
		return bodyErr
	}

	defer rt.finishBatch()
	if bodyErr != nil {
		rt.rollbackStaged()
		return bodyErr
	}
	rt.commitStaged()
	return nil
}

// commitStaged applies every staged write, advances the revision exactly
// once if any of them produced a genuine change, and fires OnChange
// callbacks for the cells that changed.
func (rt *Runtime) commitStaged() {
	if len(rt.staged) == 0 {
		return
	}

	asOf := rt.current + 1
	var changedAny bool
	changed := make([]CellId, 0, len(rt.staged))

	traceBatchCommit(context.Background(), rt, func() {
		for _, id := range rt.staged {
			m := rt.meta(id)
			if m.commitPending == nil {
				continue
			}
			if m.commitPending(asOf) {
				changedAny = true
				changed = append(changed, id)
			}
		}
	})

	if !changedAny {
		return
	}
	rt.current = asOf
	if rt.Metrics != nil {
		rt.Metrics.observeCommit(len(changed))
	}
	for _, id := range changed {
		rt.fireOnChange(id)
	}
	rt.notifyGlobalOnChange()
}

// rollbackStaged discards every staged write without applying it. Since
// staged writes never touch a Signal's observable value until commitPending
// runs, rollback is simply clearing the pending slot — there is no prior
// state to restore.
func (rt *Runtime) rollbackStaged() {
	for _, id := range rt.staged {
		m := rt.meta(id)
		if m.discardPending != nil {
			m.discardPending()
		}
	}
	if rt.Logger != nil {
		rt.Logger.Debug("cellgraph: batch rolled back", "staged_cells", len(rt.staged))
	}
}

func (rt *Runtime) finishBatch() {
	for _, id := range rt.staged {
		delete(rt.stagedSet, id.index)
	}
	rt.staged = rt.staged[:0]
}
