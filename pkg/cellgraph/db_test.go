package cellgraph

import "testing"

// appDB mirrors the host-application wrapper spec.md §6 describes: a
// type that embeds a *Runtime alongside its own state and satisfies
// Database by exposing it through a single method.
type appDB struct {
	rt       *Runtime
	userName string
}

func (a *appDB) Runtime() *Runtime { return a.rt }

func TestHostDatabaseWrapperWorksWithConstructors(t *testing.T) {
	db := &appDB{rt: NewRuntime(), userName: "ada"}

	greeting := CreateSignal(db, "hello")
	shout := CreateMemo(db, func() string { return greeting.Get() + "!" })

	if got := shout.Get(); got != "hello!" {
		t.Fatalf("expected %q, got %q", "hello!", got)
	}

	Batch(db, func() {
		greeting.Set("hi")
	})
	if got := shout.Get(); got != "hi!" {
		t.Fatalf("expected %q after batch, got %q", "hi!", got)
	}

	if db.Runtime().CurrentRevision() == Zero {
		t.Fatal("expected the batch to have advanced the wrapped Runtime's revision")
	}
}
