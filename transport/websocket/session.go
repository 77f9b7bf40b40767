package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound queue capacity per session.
	sendQueueSize = 64
)

var errSessionClosed = errors.New("websocket: session closed")

// Session is the live binding between a player identity and one
// connection. The connection handle is exclusively owned by the session;
// everything except the latency sample is touched only by the goroutines
// serving this connection.
type Session struct {
	playerID    string
	conn        *websocket.Conn
	send        chan []byte
	limiter     *rate.Limiter // nil when rate limiting is disabled
	connectedAt time.Time

	closeOnce sync.Once
	done      chan struct{}

	// Last dispatch latency, overwritten per event. Read by the registry's
	// global average from other goroutines, hence the atomics.
	latencyNs  atomic.Int64
	hasLatency atomic.Bool
	lastPingAt atomic.Int64 // unix nanos
}

func newSession(playerID string, conn *websocket.Conn, limiter *rate.Limiter) *Session {
	return &Session{
		playerID:    playerID,
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
		limiter:     limiter,
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

func (s *Session) PlayerID() string       { return s.playerID }
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// Latency returns the most recent dispatch latency sample, if any.
func (s *Session) Latency() (time.Duration, bool) {
	if !s.hasLatency.Load() {
		return 0, false
	}
	return time.Duration(s.latencyNs.Load()), true
}

func (s *Session) recordLatency(d time.Duration) {
	s.latencyNs.Store(int64(d))
	s.lastPingAt.Store(time.Now().UnixNano())
	s.hasLatency.Store(true)
}

// Send queues one frame for delivery. Delivery is best-effort: a closed
// session returns errSessionClosed, and a persistently full queue counts
// as a dead peer.
func (s *Session) Send(event string, payload any) error {
	data, err := json.Marshal(outFrame{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return errSessionClosed
	case s.send <- data:
		return nil
	default:
		return errSessionClosed
	}
}

// Close tears down the connection. Safe to call more than once and from
// any goroutine; the read loop observes the closed socket and exits.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// writePump pumps queued frames to the connection and keeps it alive with
// pings. One writePump goroutine runs per session.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
