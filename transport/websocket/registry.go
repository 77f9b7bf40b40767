package websocket

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyConnected is returned when a handshake claims a player id that
// already holds a live session.
var ErrAlreadyConnected = errors.New("websocket: player already connected")

// Registry is the authoritative live mapping from player id to session.
// The forward and reverse maps form a bijection: no player id maps to two
// sessions and no session is referenced by two player ids.
type Registry struct {
	mu       sync.Mutex
	byPlayer map[string]*Session
	byConn   map[*Session]string
}

func NewRegistry() *Registry {
	return &Registry{
		byPlayer: make(map[string]*Session),
		byConn:   make(map[*Session]string),
	}
}

// Register atomically inserts the session unless its player id is already
// live.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPlayer[s.playerID]; exists {
		return ErrAlreadyConnected
	}
	r.byPlayer[s.playerID] = s
	r.byConn[s] = s.playerID
	return nil
}

// Unregister removes whichever player id entry currently points at this
// session. Idempotent: a second call for the same session is a no-op. It
// reports whether the session was removed by this call.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	playerID, ok := r.byConn[s]
	if !ok {
		return false
	}
	delete(r.byConn, s)
	if current, live := r.byPlayer[playerID]; live && current == s {
		delete(r.byPlayer, playerID)
	}
	return true
}

// Lookup returns the live session for a player id, if any.
func (r *Registry) Lookup(playerID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byPlayer[playerID]
	return s, ok
}

// PlayerID is the reverse lookup: which player sent a frame on this
// session.
func (r *Registry) PlayerID(s *Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byConn[s]
	return id, ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPlayer)
}

func (r *Registry) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byPlayer))
	for id := range r.byPlayer {
		ids = append(ids, id)
	}
	return ids
}

// Sessions returns a snapshot of the live session set. Callers iterate the
// snapshot without holding the registry lock, so a slow send never blocks
// registration.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.byConn))
	for s := range r.byConn {
		sessions = append(sessions, s)
	}
	return sessions
}

// AverageLatency averages the last dispatch latency of every live session
// that has a sample. The second return is false when no session has one.
// Deliberately not a rolling window: each session contributes exactly its
// most recent sample.
func (r *Registry) AverageLatency() (time.Duration, bool) {
	sessions := r.Sessions()
	var total time.Duration
	var n int
	for _, s := range sessions {
		if d, ok := s.Latency(); ok {
			total += d
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / time.Duration(n), true
}
