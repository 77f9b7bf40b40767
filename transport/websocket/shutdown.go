package websocket

import (
	"log"
	"sync"
	"time"
)

// Coordinator states.
type State int

const (
	StateRunning State = iota
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Coordinator sequences graceful shutdown. The first Signal broadcasts a
// server_shutdown notice and opens a grace window for clients to wrap up;
// a second Signal, or the window elapsing, closes every session. Signals
// after that are no-ops.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	grace    time.Duration
	notifier *Notifier
	closeFn  func()
	timer    *time.Timer
	done     chan struct{}
}

func NewCoordinator(grace time.Duration, notifier *Notifier, closeFn func()) *Coordinator {
	return &Coordinator{
		grace:    grace,
		notifier: notifier,
		closeFn:  closeFn,
		done:     make(chan struct{}),
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once every session has been torn down.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Signal advances the shutdown sequence by one step.
func (c *Coordinator) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning:
		c.state = StateDraining
		log.Printf("[WS] draining: closing in %s\n", c.grace)
		c.notifier.Broadcast(EventServerShutdown, map[string]string{
			"message": "server shutting down, finish up",
		})
		c.timer = time.AfterFunc(c.grace, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.closeLocked()
		})
	case StateDraining:
		log.Println("[WS] second signal, closing now")
		if c.timer != nil {
			c.timer.Stop()
		}
		c.closeLocked()
	case StateClosed:
		// Nothing left to do.
	}
}

// closeLocked transitions to Closed and tears down sessions exactly once.
// Caller holds the lock.
func (c *Coordinator) closeLocked() {
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.closeFn()
	close(c.done)
	log.Println("[WS] all sessions closed")
}
