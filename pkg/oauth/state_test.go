package oauth

import (
	"testing"
	"time"
)

func TestMemoryStateStore_PutGetConsume(t *testing.T) {
	store := NewMemoryStateStore(time.Minute)
	defer store.Close()

	fs := &FlowState{
		State:      "abc",
		ProviderID: "github",
		CreatedAt:  time.Now(),
	}

	if err := store.Put(fs); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	t.Run("get does not consume", func(t *testing.T) {
		got, err := store.Get("abc")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil || got.ProviderID != "github" {
			t.Fatalf("Get() = %+v, want the stored record", got)
		}
		if store.Count() != 1 {
			t.Errorf("Count() = %d after Get, want 1", store.Count())
		}
	})

	t.Run("consume deletes", func(t *testing.T) {
		got, err := store.Consume("abc")
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if got == nil {
			t.Fatal("Consume() = nil, want the stored record")
		}

		again, err := store.Consume("abc")
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if again != nil {
			t.Errorf("second Consume() = %+v, want nil", again)
		}
	})

	t.Run("put without state fails", func(t *testing.T) {
		if err := store.Put(&FlowState{}); err == nil {
			t.Error("Put() without state value succeeded")
		}
	})
}

func TestMemoryStateStore_Sweep(t *testing.T) {
	store := NewMemoryStateStore(10 * time.Minute)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	fresh := &FlowState{State: "fresh", CreatedAt: now.Add(-time.Minute)}
	stale := &FlowState{State: "stale", CreatedAt: now.Add(-11 * time.Minute)}

	if err := store.Put(fresh); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(stale); err != nil {
		t.Fatal(err)
	}

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}

	// Idempotent
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("second Sweep() = %d, want 0", removed)
	}

	if got, _ := store.Get("fresh"); got == nil {
		t.Error("Sweep() removed an unexpired record")
	}
	if got, _ := store.Get("stale"); got != nil {
		t.Error("Sweep() kept an expired record")
	}
}

func TestMemoryStateStore_Reset(t *testing.T) {
	store := NewMemoryStateStore(time.Minute)
	defer store.Close()

	for _, state := range []string{"a", "b", "c"} {
		if err := store.Put(&FlowState{State: state, CreatedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	store.Reset()

	if store.Count() != 0 {
		t.Errorf("Count() = %d after Reset, want 0", store.Count())
	}
}
