package cellgraph

// MemoMap lazily memoizes one Memo[V] per key, created the first time that
// key is requested. Each key's Memo behaves exactly like a top-level Memo:
// it tracks its own dependencies, verifies independently of every other
// key, and is backdated independently.
//
// Grounded on the teacher's SharedMemoDef[T] (pkg/vango/memo_shared.go),
// which lazily creates one Memo[T] per session; MemoMap generalizes that
// from "one per session" to "one per key".
type MemoMap[K comparable, V any] struct {
	rt      *Runtime
	compute func(K) V
	equal   func(a, b V) bool
	opts    []MemoOption

	entries map[K]*Memo[V]
}

// CreateMemoMap creates a new keyed memo table. compute is called with a
// key the first time that key is requested, and never again unless the
// resulting Memo is itself invalidated by a dependency change. db is
// typically a bare *Runtime, or a host application type that implements
// Database.
func CreateMemoMap[K comparable, V any](db Database, compute func(K) V, opts ...MemoOption) *MemoMap[K, V] {
	return &MemoMap[K, V]{
		rt:      db.Runtime(),
		compute: compute,
		opts:    opts,
		entries: make(map[K]*Memo[V]),
	}
}

func (mm *MemoMap[K, V]) memoFor(key K) *Memo[V] {
	m, ok := mm.entries[key]
	if !ok {
		m = CreateMemo(mm.rt, func() V { return mm.compute(key) }, mm.opts...)
		if mm.equal != nil {
			m.WithEquals(mm.equal)
		}
		mm.entries[key] = m
	}
	return m
}

// Get returns the up-to-date value for key, computing it (and creating its
// backing Memo) on first access. Panics with a *CycleError on a
// self-dependency; see GetResult to avoid the panic.
func (mm *MemoMap[K, V]) Get(key K) V {
	return mm.memoFor(key).Get()
}

// GetResult is like Get but returns a *CycleError instead of panicking.
func (mm *MemoMap[K, V]) GetResult(key K) (V, error) {
	return mm.memoFor(key).GetResult()
}

// Contains reports whether key has a backing Memo yet, without creating
// one. A false result does not imply compute(key) would fail — only that it
// has never been requested.
func (mm *MemoMap[K, V]) Contains(key K) bool {
	_, ok := mm.entries[key]
	return ok
}

// Len returns the number of keys that have a backing Memo.
func (mm *MemoMap[K, V]) Len() int {
	return len(mm.entries)
}

// WithEquals configures the equality function used by every Memo this
// MemoMap creates from this point on. Existing entries are unaffected.
func (mm *MemoMap[K, V]) WithEquals(fn func(a, b V) bool) *MemoMap[K, V] {
	mm.equal = fn
	return mm
}
