package session

import (
	"bytes"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

const lock = `{
	"name": "demo",
	"lockfileVersion": 3,
	"packages": {
		"": {"dependencies": {"a": "^1", "c": "^1"}},
		"node_modules/a": {"version": "1.0.0", "dependencies": {"b": "^2"}},
		"node_modules/b": {"version": "2.0.0"},
		"node_modules/c": {"version": "1.0.0", "dependencies": {"b": "^2"}}
	}
}`

func analyze(t *testing.T) *pipeline.Analysis {
	t.Helper()
	r := pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{}))
	a, err := r.Analyze(context.Background(), []byte(lock), pipeline.Options{Source: "lock.json"})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func stores(t *testing.T) map[string]Store {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"cache":  NewCacheStore(fc, nil),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := analyze(t)
			sess := New(a, time.Hour)
			if sess.ID != a.ID {
				t.Errorf("session ID %q != analysis ID %q", sess.ID, a.ID)
			}
			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil || got == nil {
				t.Fatalf("Get = %v, %v", got, err)
			}
			ga := got.Analysis
			if ga.ID != a.ID || ga.Name != "demo" || ga.LockfileVersion != 3 || ga.Source != "lock.json" {
				t.Errorf("metadata = %q %q %d %q", ga.ID, ga.Name, ga.LockfileVersion, ga.Source)
			}
			if ga.Stats.Packages != 3 {
				t.Errorf("stats = %+v", ga.Stats)
			}
			sim, err := ga.Simulate(ctx, "b@2.0.0")
			if err != nil || !slices.Equal(sim.ImpactedPackages, []string{"a@1.0.0", "c@1.0.0"}) {
				t.Errorf("Simulate on stored analysis = %+v, %v", sim, err)
			}

			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got, _ := store.Get(ctx, sess.ID); got != nil {
				t.Error("session survived Delete")
			}
		})
	}
}

func TestStoreMissing(t *testing.T) {
	for name, store := range stores(t) {
		got, err := store.Get(context.Background(), "nope")
		if got != nil || err != nil {
			t.Errorf("%s: Get(missing) = %v, %v", name, got, err)
		}
	}
}

func TestStoreExpired(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		sess := New(analyze(t), time.Hour)
		if err := store.Set(ctx, sess); err != nil {
			t.Fatal(err)
		}
		if m, ok := store.(*MemoryStore); ok {
			sess.ExpiresAt = time.Now().Add(-time.Second)
			if got, _ := m.Get(ctx, sess.ID); got != nil {
				t.Errorf("%s: expired session returned", name)
			}
			if m.Len() != 0 {
				t.Errorf("%s: expired session not evicted", name)
			}
			continue
		}
		expired := New(analyze(t), -time.Second)
		if err := store.Set(ctx, expired); err != nil {
			t.Fatal(err)
		}
		if got, _ := store.Get(ctx, expired.ID); got != nil {
			t.Errorf("%s: expired session returned", name)
		}
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	live := New(analyze(t), time.Hour)
	dead := New(analyze(t), -time.Minute)
	_ = s.Set(ctx, live)
	_ = s.Set(ctx, dead)

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after Cleanup, want 1", s.Len())
	}
	if got, _ := s.Get(ctx, live.ID); got == nil {
		t.Error("live session removed")
	}
}

func TestRunCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	_ = s.Set(ctx, New(analyze(t), -time.Minute))

	done := make(chan struct{})
	go func() {
		RunCleanup(ctx, s, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("cleanup did not run")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
