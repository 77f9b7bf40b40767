package websocket

import (
	"testing"
	"time"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	s := newSession("alice", nil, nil)

	if err := r.Register(s); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	got, ok := r.Lookup("alice")
	if !ok {
		t.Fatal("Lookup() did not find registered player")
	}
	if got != s {
		t.Error("Lookup() returned a different session")
	}

	id, ok := r.PlayerID(s)
	if !ok || id != "alice" {
		t.Errorf("PlayerID() = %q, %v; want alice, true", id, ok)
	}

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistryDuplicatePlayerRejected(t *testing.T) {
	r := NewRegistry()
	first := newSession("alice", nil, nil)
	second := newSession("alice", nil, nil)

	if err := r.Register(first); err != nil {
		t.Fatalf("first Register() returned error: %v", err)
	}
	if err := r.Register(second); err != ErrAlreadyConnected {
		t.Fatalf("second Register() = %v, want ErrAlreadyConnected", err)
	}

	// The original binding must survive the rejected attempt.
	got, ok := r.Lookup("alice")
	if !ok || got != first {
		t.Error("rejected registration disturbed the existing session")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newSession("bob", nil, nil)

	if err := r.Register(s); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	if !r.Unregister(s) {
		t.Error("first Unregister() = false, want true")
	}
	if r.Unregister(s) {
		t.Error("second Unregister() = true, want false")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after unregister, want 0", r.Count())
	}
	if _, ok := r.Lookup("bob"); ok {
		t.Error("Lookup() found player after unregister")
	}
}

func TestRegistryUnregisterStaleSession(t *testing.T) {
	r := NewRegistry()
	old := newSession("carol", nil, nil)

	if err := r.Register(old); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	// Old session torn down, new one takes over the player id.
	r.Unregister(old)
	fresh := newSession("carol", nil, nil)
	if err := r.Register(fresh); err != nil {
		t.Fatalf("re-Register() returned error: %v", err)
	}

	// A late unregister of the old session must not evict the fresh one.
	r.Unregister(old)
	got, ok := r.Lookup("carol")
	if !ok || got != fresh {
		t.Error("stale Unregister() evicted the live session")
	}
}

func TestRegistryAverageLatency(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.AverageLatency(); ok {
		t.Error("AverageLatency() = ok with no sessions, want false")
	}

	a := newSession("alice", nil, nil)
	b := newSession("bob", nil, nil)
	c := newSession("carol", nil, nil)
	for _, s := range []*Session{a, b, c} {
		if err := r.Register(s); err != nil {
			t.Fatalf("Register() returned error: %v", err)
		}
	}

	// No samples yet.
	if _, ok := r.AverageLatency(); ok {
		t.Error("AverageLatency() = ok with no samples, want false")
	}

	a.recordLatency(10 * time.Millisecond)
	b.recordLatency(30 * time.Millisecond)
	// carol never dispatched anything and must not drag the average down.

	avg, ok := r.AverageLatency()
	if !ok {
		t.Fatal("AverageLatency() = !ok with samples present")
	}
	if avg != 20*time.Millisecond {
		t.Errorf("AverageLatency() = %v, want 20ms", avg)
	}

	// A new sample overwrites, it does not accumulate.
	a.recordLatency(50 * time.Millisecond)
	avg, _ = r.AverageLatency()
	if avg != 40*time.Millisecond {
		t.Errorf("AverageLatency() after overwrite = %v, want 40ms", avg)
	}
}
