package cellgraph

import "testing"

func TestMemoRecomputesOnlyWhenDependencyChanges(t *testing.T) {
	rt := NewRuntime()
	a := CreateSignal(rt, 2)
	runs := 0
	doubled := CreateMemo(rt, func() int {
		runs++
		return a.Get() * 2
	})

	if got := doubled.Get(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := doubled.Get(); got != 4 || runs != 1 {
		t.Fatalf("expected cached read with 1 compute run, got value %d runs %d", got, runs)
	}

	a.Set(3)
	if got := doubled.Get(); got != 6 || runs != 2 {
		t.Fatalf("expected recompute after dependency changed, got value %d runs %d", got, runs)
	}
}

// TestDurabilityShortcutSkipsDependencyWalk mirrors spec.md Scenario B: a
// High-durability config signal feeds a memo; a Low-durability signal that
// the memo never reads is mutated, and the memo must not recompute.
func TestDurabilityShortcutSkipsDependencyWalk(t *testing.T) {
	rt := NewRuntime()
	config := CreateSignal(rt, 100, WithDurability(High))
	unrelated := CreateSignal(rt, 1, WithDurability(Low))
	runs := 0
	cfg2 := CreateMemo(rt, func() int {
		runs++
		return config.Get() * 2
	})

	if got := cfg2.Get(); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if runs != 1 {
		t.Fatalf("expected 1 compute run, got %d", runs)
	}

	unrelated.Set(2)

	if got := cfg2.Get(); got != 200 {
		t.Fatalf("expected 200 after unrelated low-durability write, got %d", got)
	}
	if runs != 1 {
		t.Fatalf("expected no recompute from an unrelated low-durability write, got %d runs", runs)
	}
}

// TestBackdatingStopsPropagation mirrors the scenario where an upstream
// Signal changes but a Memo's recomputed value is equal under its equality,
// so a Memo depending on *that* Memo must see no change either.
func TestBackdatingStopsPropagation(t *testing.T) {
	rt := NewRuntime()
	n := CreateSignal(rt, 4)
	parityRuns := 0
	parity := CreateMemo(rt, func() int {
		parityRuns++
		return n.Get() % 2
	})
	downstreamRuns := 0
	downstream := CreateMemo(rt, func() int {
		downstreamRuns++
		return parity.Get() + 100
	})

	if got := downstream.Get(); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if parityRuns != 1 || downstreamRuns != 1 {
		t.Fatalf("expected one run each, got parity=%d downstream=%d", parityRuns, downstreamRuns)
	}

	n.Set(6) // still even: parity recomputes to the same value, backdated

	if got := downstream.Get(); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if parityRuns != 2 {
		t.Fatalf("expected parity to recompute once more, got %d", parityRuns)
	}
	if downstreamRuns != 1 {
		t.Fatalf("expected downstream to skip recompute thanks to backdating, got %d runs", downstreamRuns)
	}
}

// TestMemoDurabilityTracksMinOfCurrentDependencies mirrors spec.md §3's
// "Memo: min of current dependency durabilities" and Testable Property 5:
// a Memo's own durability must follow its dependency set as it's
// recomputed, not stay fixed at whatever it was given at construction.
func TestMemoDurabilityTracksMinOfCurrentDependencies(t *testing.T) {
	rt := NewRuntime()
	useHigh := CreateSignal(rt, true, WithDurability(High))
	highDep := CreateSignal(rt, 1, WithDurability(High))
	lowDep := CreateSignal(rt, 2, WithDurability(Low))

	m := CreateMemo(rt, func() int {
		if useHigh.Get() {
			return highDep.Get()
		}
		return lowDep.Get()
	})

	if got := m.Get(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if m.Durability() != High {
		t.Fatalf("expected High durability while only reading the High-durability dependency, got %v", m.Durability())
	}

	useHigh.Set(false)
	if got := m.Get(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if m.Durability() != Low {
		t.Fatalf("expected durability to drop to Low once the Memo only reads the Low-durability dependency, got %v", m.Durability())
	}
	if rt.Info(m.ID()).Durability != Low {
		t.Fatalf("expected CellInfo.Durability to match Memo.Durability()")
	}
}

func TestMemoOnChangeFiresOnlyWhenRecomputedValueDiffers(t *testing.T) {
	rt := NewRuntime()
	n := CreateSignal(rt, 4)
	parity := CreateMemo(rt, func() int { return n.Get() % 2 })
	fired := 0
	parity.OnChange(func() { fired++ })

	parity.Get() // first computation: no prior value, so it counts as a change
	if fired != 1 {
		t.Fatalf("expected one OnChange firing from the first computation, fired %d times", fired)
	}

	n.Set(6) // still even: recompute backdates, no observable change
	if got := parity.Get(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if fired != 1 {
		t.Fatalf("expected no further OnChange firing when backdating suppresses the change, fired %d times", fired)
	}

	n.Set(5) // odd now: a genuine change
	if got := parity.Get(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if fired != 2 {
		t.Fatalf("expected OnChange to fire once more for the genuine change, fired %d times", fired)
	}

	parity.ClearOnChange()
	n.Set(7)
	parity.Get()
	if fired != 2 {
		t.Fatalf("expected ClearOnChange to stop further notifications, fired %d times", fired)
	}
}

func TestMemoSelfReferenceReturnsCycleError(t *testing.T) {
	rt := NewRuntime()
	var self *Memo[int]
	self = CreateMemo(rt, func() int {
		return self.Get() + 1
	})

	_, err := self.GetResult()
	var cycleErr *CycleError
	if err == nil {
		t.Fatal("expected a CycleError, got nil")
	}
	if ce, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T", err)
	} else {
		cycleErr = ce
	}
	if cycleErr.Cell() != self.ID() {
		t.Errorf("expected cycle to report the self-referencing memo")
	}
}

// TestCycleFallbackRecordsNoSpuriousDependency mirrors spec.md Scenario D
// and the §4.8 critical invariant: a Memo that calls GetResult on itself
// and falls back to a default on a cycle must not accrete a self-edge, and
// a downstream Memo depending on it must work normally afterward without
// re-detecting a cycle.
func TestCycleFallbackRecordsNoSpuriousDependency(t *testing.T) {
	rt := NewRuntime()
	var m *Memo[int]
	m = CreateMemo(rt, func() int {
		v, err := m.GetResult()
		if err != nil {
			return 0
		}
		return v
	})

	if got := m.Get(); got != 0 {
		t.Fatalf("expected fallback value 0, got %d", got)
	}
	if deps := m.Dependencies(); len(deps) != 0 {
		t.Fatalf("expected no recorded self-dependency after the caught cycle, got %v", deps)
	}

	downstream := CreateMemo(rt, func() int { return m.Get() + 1 })
	if got := downstream.Get(); got != 1 {
		t.Fatalf("expected downstream to read the fallback value normally, got %d", got)
	}
}

func TestMemoGraphCycleReturnsCycleError(t *testing.T) {
	rt := NewRuntime()
	var a, b *Memo[int]
	a = CreateMemo(rt, func() int { return b.Get() + 1 }, WithMemoLabel("a"))
	b = CreateMemo(rt, func() int { return a.Get() + 1 }, WithMemoLabel("b"))

	_, err := a.GetResult()
	cycleErr, ok := err.(*CycleError)
	if !ok {
		t.Fatalf("expected *CycleError, got %v", err)
	}

	// The path must include the intermediate hop through b, not just a
	// bare [a, a] pair, or Testable Property 10 (a cycle's reported path
	// reflects the actual traversal) fails for any multi-hop cycle.
	path := cycleErr.Path()
	if len(path) != 3 || path[0] != a.ID() || path[1] != b.ID() || path[2] != a.ID() {
		t.Fatalf("expected path [a, b, a], got %v", path)
	}
	if got := cycleErr.FormatPath(); got != "a -> b -> a" {
		t.Fatalf("expected formatted path %q, got %q", "a -> b -> a", got)
	}
}

func TestMemoGetPanicsOnCycle(t *testing.T) {
	rt := NewRuntime()
	var self *Memo[int]
	self = CreateMemo(rt, func() int { return self.Get() })

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Get to panic on a cycle")
		}
	}()
	self.Get()
}

// TestDeepDependencyChainDoesNotRecurseNatively mirrors spec.md Scenario F:
// a chain of 250 memos, each depending only on the previous one, must
// recompute correctly end to end without stack overflow.
func TestDeepDependencyChainDoesNotRecurseNatively(t *testing.T) {
	const depth = 250
	rt := NewRuntime()
	root := CreateSignal(rt, 1)

	memos := make([]*Memo[int], depth)
	for i := 0; i < depth; i++ {
		i := i
		if i == 0 {
			memos[i] = CreateMemo(rt, func() int { return root.Get() + 1 })
		} else {
			prev := memos[i-1]
			memos[i] = CreateMemo(rt, func() int { return prev.Get() + 1 })
		}
	}

	last := memos[depth-1]
	if got := last.Get(); got != 1+depth {
		t.Fatalf("expected %d, got %d", 1+depth, got)
	}

	root.Set(10)
	if got := last.Get(); got != 10+depth {
		t.Fatalf("expected %d after root changed, got %d", 10+depth, got)
	}
}

func TestMemoIsUpToDateAndDependencies(t *testing.T) {
	rt := NewRuntime()
	a := CreateSignal(rt, 1)
	b := CreateSignal(rt, 2)
	sum := CreateMemo(rt, func() int { return a.Get() + b.Get() })

	if sum.IsUpToDate() {
		t.Fatal("expected a never-read memo to not be up to date")
	}
	sum.Get()
	if !sum.IsUpToDate() {
		t.Fatal("expected memo to be up to date immediately after Get")
	}
	if len(sum.Dependencies()) != 2 {
		t.Fatalf("expected 2 recorded dependencies, got %d", len(sum.Dependencies()))
	}
}
