package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"greensim/internal/photosynthesis"
)

func newTestRegistry(t *testing.T, max int) *Registry {
	t.Helper()
	r := NewRegistry(context.Background(), RegistryOptions{
		Interval:    5 * time.Millisecond,
		MaxSessions: max,
		Initial:     benign,
	})
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := newTestRegistry(t, 4)

	def, err := r.Create("default", nil)
	if err != nil {
		t.Fatalf("Create(default) error = %v", err)
	}
	gen, err := r.Create("", &photosynthesis.Inputs{CO2PPM: 1800, TemperatureC: 8, LightPct: 45})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if gen.ID() != "session-1" {
		t.Errorf("generated id = %q, want session-1", gen.ID())
	}

	got, err := r.Get("default")
	if err != nil || got != def {
		t.Errorf("Get(default) = %v, %v", got, err)
	}

	snap, err := gen.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Inputs.CO2PPM != 1800 {
		t.Errorf("custom inputs not applied: %+v", snap.Inputs)
	}

	if ids := r.IDs(); !reflect.DeepEqual(ids, []string{"default", "session-1"}) {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := newTestRegistry(t, 2)

	if _, err := r.Create("a", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create("a", nil); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Create = %v, want ErrExists", err)
	}
	if _, err := r.Create("b", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create("c", nil); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Create over limit = %v, want ErrTooManySessions", err)
	}
	if _, err := r.Get("zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(zzz) = %v, want ErrNotFound", err)
	}
	if err := r.Delete("zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(zzz) = %v, want ErrNotFound", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	r := newTestRegistry(t, 2)

	e, err := r.Create("x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Delete("x"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, err := e.Snapshot(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("deleted session Snapshot() = %v, want ErrStopped", err)
	}
	if _, err := r.Create("x", nil); err != nil {
		t.Errorf("re-create after delete: %v", err)
	}
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r := newTestRegistry(t, 2)
	a, _ := r.Create("a", nil)
	b, _ := r.Create("b", nil)

	waitForTick(t, a, 2)
	if _, err := a.Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}

	snapB := waitForTick(t, b, 3)
	snapA, _ := a.Snapshot(context.Background())
	if snapA.State.NextTick != 0 || snapA.State.Running {
		t.Errorf("session a: %+v", snapA.State)
	}
	if !snapB.State.Running {
		t.Error("pausing a must not pause b")
	}
}

func TestRegistry_PublishAndTicks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	r := NewRegistry(context.Background(), RegistryOptions{
		Interval: 5 * time.Millisecond,
		Initial:  benign,
		Publish: func(id string, v any) {
			mu.Lock()
			seen[id]++
			mu.Unlock()
		},
	})
	defer r.Close()

	e, _ := r.Create("p", nil)
	waitForTick(t, e, 3)

	if r.TicksTotal() < 3 {
		t.Errorf("TicksTotal() = %d, want >= 3", r.TicksTotal())
	}
	mu.Lock()
	defer mu.Unlock()
	if seen["p"] < 3 {
		t.Errorf("published %d events for p, want >= 3", seen["p"])
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(context.Background(), RegistryOptions{Initial: benign})
	e, _ := r.Create("", nil)
	r.Close()

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("engine still running after Close")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Close", r.Len())
	}
}
