package cellgraph

// verifyFrame is one level of the Verifier's explicit dependency-walk stack.
// Using an explicit stack instead of native recursion means verifying a
// dependency chain hundreds of cells deep costs one heap allocation per
// level instead of one native stack frame, and can never overflow the
// goroutine stack regardless of chain depth.
type verifyFrame struct {
	id   CellId
	deps []CellId
	// index is the next dependency of deps still to be examined.
	index int
	// baseline is the cell's verifiedAt revision as of the moment this
	// frame was pushed, captured once so every dependency's changedAt can
	// be compared against the same fixed point as the walk proceeds.
	baseline Revision
	// anyChanged reports whether any dependency examined so far changed
	// after baseline.
	anyChanged bool
}

// ensureFresh is the Verifier: it brings a Memo's cached value up to date
// with the Runtime's current revision, recomputing it (and, transitively,
// any stale dependency) only if something it actually depends on changed.
// It is a no-op for Signals, which are always current.
//
// Once a Memo's dependency list is known (after its first computation),
// re-verifying it never recurses: the explicit stack below walks every
// already-known dependency bottom-up before deciding whether the Memo
// itself needs to recompute, so a long-settled dependency chain is
// re-checked without growing the goroutine's call stack. A Memo's very
// first computation is the exception — its dependencies aren't known until
// compute() runs, so that first pass naturally recurses through ordinary
// Get() calls one level per dependency, same as any other first-time
// graph walk; Go's growable goroutine stack makes this safe well beyond
// any realistic dependency chain depth.
//
// The one case where ensureFresh is reentered for a cell it is already
// processing is a genuine cycle — a cell reading itself, directly or
// transitively, while still in progress — which returns a *CycleError
// immediately instead of recursing further.
func (rt *Runtime) ensureFresh(root CellId) error {
	meta := rt.meta(root)
	if meta.kind != kindMemo {
		return nil
	}
	if meta.inProgress {
		return newCycleError(rt, root)
	}
	if meta.computed && meta.verifiedAt == rt.current {
		return nil
	}
	if rt.shortcutFresh(meta) {
		meta.verifiedAt = rt.current
		rt.observeVerify(false)
		return nil
	}

	meta.inProgress = true
	stack := []*verifyFrame{{id: root, baseline: meta.verifiedAt}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		topMeta := rt.meta(top.id)
		if top.deps == nil {
			top.deps = topMeta.dependencies
		}

		if top.index >= len(top.deps) {
			stack = stack[:len(stack)-1]

			var changed bool
			if !topMeta.computed || (len(top.deps) > 0 && top.anyChanged) {
				topMeta.inProgress = false // hand off to recomputeAndCheck's own guard
				c, err := topMeta.recomputeAndCheck(rt.current)
				if err != nil {
					clearInProgress(rt, stack)
					return err
				}
				changed = c
			} else {
				topMeta.verifiedAt = rt.current
				topMeta.inProgress = false
			}
			rt.observeVerify(changed || top.anyChanged)

			if len(stack) == 0 {
				break
			}
			parent := stack[len(stack)-1]
			if changed || topMeta.changedAt > parent.baseline {
				parent.anyChanged = true
			}
			parent.index++
			continue
		}

		dep := top.deps[top.index]
		depMeta := rt.meta(dep)

		switch {
		case depMeta.kind != kindMemo:
			if depMeta.changedAt > top.baseline {
				top.anyChanged = true
			}
			top.index++

		case depMeta.computed && depMeta.verifiedAt == rt.current:
			if depMeta.changedAt > top.baseline {
				top.anyChanged = true
			}
			top.index++

		case rt.shortcutFresh(depMeta):
			depMeta.verifiedAt = rt.current
			if depMeta.changedAt > top.baseline {
				top.anyChanged = true
			}
			top.index++

		case depMeta.inProgress:
			err := newCycleErrorFromFrames(rt, frameIDs(stack), dep)
			clearInProgress(rt, stack)
			return err

		default:
			depMeta.inProgress = true
			stack = append(stack, &verifyFrame{id: dep, baseline: depMeta.verifiedAt})
		}
	}

	return nil
}

// shortcutFresh reports whether meta can be marked fresh without examining
// any dependency: nothing at or above meta's minimum dependency durability
// has changed since meta was last verified. Never applies before a Memo's
// first computation.
func (rt *Runtime) shortcutFresh(meta *cellMeta) bool {
	if !meta.computed {
		return false
	}
	return rt.durabilityLastChanged[meta.minDepDurability] <= meta.verifiedAt
}

func frameIDs(stack []*verifyFrame) []CellId {
	ids := make([]CellId, len(stack))
	for i, f := range stack {
		ids[i] = f.id
	}
	return ids
}

// clearInProgress clears the inProgress flag on every frame still on the
// stack when a cycle aborts the walk partway through, matching spec.md
// §4.6's Cleanup clause.
func clearInProgress(rt *Runtime, stack []*verifyFrame) {
	for _, f := range stack {
		rt.meta(f.id).inProgress = false
	}
}

// computeMinDurability returns the lowest durability among deps, or High
// (the most durable level — "treat as never changing") for a dependency
// list of zero length, propagating a dependency Memo's own
// minDepDurability rather than its nominal durability field.
func computeMinDurability(rt *Runtime, deps []CellId) Durability {
	min := High
	for _, d := range deps {
		m := rt.meta(d)
		du := m.durability
		if m.kind == kindMemo {
			du = m.minDepDurability
		}
		if du < min {
			min = du
		}
	}
	return min
}

func (rt *Runtime) observeVerify(recomputed bool) {
	if rt.Metrics != nil {
		rt.Metrics.observeVerify(recomputed)
	}
}
