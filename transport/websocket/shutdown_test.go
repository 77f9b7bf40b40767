package websocket

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinatorDrainThenClose(t *testing.T) {
	registry := NewRegistry()
	notifier := NewNotifier(registry)
	s := newSession("alice", nil, nil)
	registry.Register(s)

	var closes atomic.Int32
	c := NewCoordinator(20*time.Millisecond, notifier, func() {
		closes.Add(1)
	})

	if c.State() != StateRunning {
		t.Fatalf("initial state = %v, want running", c.State())
	}

	c.Signal()

	if c.State() != StateDraining {
		t.Fatalf("state after first signal = %v, want draining", c.State())
	}

	// The shutdown notice reaches live sessions immediately.
	select {
	case data := <-s.send:
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("failed to unmarshal broadcast: %v", err)
		}
		if frame.Event != EventServerShutdown {
			t.Errorf("broadcast event = %q, want %s", frame.Event, EventServerShutdown)
		}
	default:
		t.Fatal("no shutdown broadcast queued")
	}

	// The grace window elapses and closeFn fires once.
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("coordinator did not close after grace window")
	}
	if c.State() != StateClosed {
		t.Errorf("state after grace = %v, want closed", c.State())
	}
	if n := closes.Load(); n != 1 {
		t.Errorf("closeFn ran %d times, want 1", n)
	}

	// Further signals are no-ops.
	c.Signal()
	if n := closes.Load(); n != 1 {
		t.Errorf("closeFn ran %d times after extra signal, want 1", n)
	}
}

func TestCoordinatorSecondSignalClosesImmediately(t *testing.T) {
	registry := NewRegistry()
	notifier := NewNotifier(registry)

	var closes atomic.Int32
	c := NewCoordinator(time.Hour, notifier, func() {
		closes.Add(1)
	})

	c.Signal()
	c.Signal()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("second signal did not close immediately")
	}
	if c.State() != StateClosed {
		t.Errorf("state = %v, want closed", c.State())
	}
	if n := closes.Load(); n != 1 {
		t.Errorf("closeFn ran %d times, want 1", n)
	}
}
