package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tradelink/server/auth"
	"github.com/tradelink/server/metrics"
)

// PresenceStore is the slice of the persistence layer the transport
// needs: flipping a player's connected flag on handshake and teardown.
type PresenceStore interface {
	SetConnected(ctx context.Context, playerID string, connected bool) error
}

// RateLimitConfig bounds inbound frames per connection with a token
// bucket.
type RateLimitConfig struct {
	Enabled        bool
	MessagesPerSec float64
	Burst          int
}

// Config wires a Server. Handlers is the immutable event table; it must
// be complete before the first connection is accepted.
type Config struct {
	Verifier     *auth.Verifier
	Presence     PresenceStore
	Handlers     map[string]Handler
	RoomCapacity int
	RateLimit    RateLimitConfig
}

// Server terminates socket connections: handshake, session registration,
// read loop and teardown. It owns the registry, room table, notifier and
// router.
type Server struct {
	registry *Registry
	rooms    *Rooms
	notifier *Notifier
	router   *Router

	verifier  *auth.Verifier
	presence  PresenceStore
	rateLimit RateLimitConfig
	upgrader  websocket.Upgrader
}

func NewServer(cfg Config) *Server {
	registry := NewRegistry()
	rooms := NewRooms(cfg.RoomCapacity)
	notifier := NewNotifier(registry)

	return &Server{
		registry:  registry,
		rooms:     rooms,
		notifier:  notifier,
		router:    NewRouter(cfg.Handlers, registry, rooms, notifier),
		verifier:  cfg.Verifier,
		presence:  cfg.Presence,
		rateLimit: cfg.RateLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetHandlers replaces the event table. The router treats its table as
// immutable, so this must happen before the first connection is accepted.
// It exists because the service layer needs the server's notifier before
// its handlers can be built.
func (s *Server) SetHandlers(handlers map[string]Handler) {
	s.router = NewRouter(handlers, s.registry, s.rooms, s.notifier)
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Rooms() *Rooms       { return s.rooms }
func (s *Server) Notifier() *Notifier { return s.notifier }

// HandleWS upgrades the connection, runs the handshake and serves frames
// until the connection closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	playerID := r.Header.Get("X-Player-ID")
	if playerID == "" {
		playerID = r.URL.Query().Get("playerId")
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v\n", err)
		return
	}

	if code, msg, ok := s.authenticate(token, playerID); !ok {
		s.reject(conn, code, msg)
		return
	}

	session := newSession(playerID, conn, s.newLimiter())
	if err := s.registry.Register(session); err != nil {
		s.reject(conn, CodeAlreadyConnected, "player already has a live session")
		return
	}

	metrics.LiveSessions.Set(float64(s.registry.Count()))
	log.Printf("[WS] %s connected (sessions: %d)\n", playerID, s.registry.Count())
	s.markConnected(playerID, true)

	go session.writePump()
	s.readLoop(session)
}

// authenticate runs the ordered handshake checks. The duplicate-session
// check happens later, atomically, inside Register.
func (s *Server) authenticate(token, playerID string) (code, msg string, ok bool) {
	switch err := s.verifier.Verify(token); {
	case errors.Is(err, auth.ErrMissingToken):
		return CodeMissingToken, "authorization token required", false
	case errors.Is(err, auth.ErrExpired):
		return CodeInvalidToken, "authorization token expired", false
	case err != nil:
		return CodeInvalidToken, "authorization token invalid", false
	}
	if playerID == "" {
		return CodeMissingPlayerID, "player id required", false
	}
	return "", "", true
}

// reject sends exactly one error frame and closes. No session exists at
// this point.
func (s *Server) reject(conn *websocket.Conn, code, msg string) {
	metrics.HandshakeFailures.WithLabelValues(code).Inc()
	log.Printf("[WS] handshake rejected: %s\n", code)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(outFrame{Event: EventError, Data: errorPayload{Error: code, Message: msg}})
	conn.Close()
}

// readLoop serves inbound frames until the socket closes or errors. There
// is no cooperative cancellation beyond the closed socket: teardown runs
// exactly once from the deferred block regardless of how the loop exits.
func (s *Server) readLoop(session *Session) {
	defer func() {
		session.Close()
		s.registry.Unregister(session)
		metrics.LiveSessions.Set(float64(s.registry.Count()))
		s.markConnected(session.PlayerID(), false)
		log.Printf("[WS] %s disconnected (sessions: %d)\n", session.PlayerID(), s.registry.Count())
	}()

	conn := session.conn
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error for %s: %v\n", session.PlayerID(), err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if session.limiter != nil && !session.limiter.Allow() {
			log.Printf("[WS] rate limit exceeded for %s\n", session.PlayerID())
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}

		s.router.Dispatch(context.Background(), session, raw)
	}
}

// CloseAll tears down every live session. Used by the shutdown
// coordinator after the drain window.
func (s *Server) CloseAll() {
	for _, session := range s.registry.Sessions() {
		session.Close()
	}
}

func (s *Server) newLimiter() *rate.Limiter {
	if !s.rateLimit.Enabled {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.rateLimit.MessagesPerSec), s.rateLimit.Burst)
}

// markConnected records presence in the store. The connect/disconnect
// pair runs exactly once per session: connect after Register succeeds,
// disconnect in the single teardown path.
func (s *Server) markConnected(playerID string, connected bool) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.presence.SetConnected(ctx, playerID, connected); err != nil {
		log.Printf("[WS] presence update failed for %s: %v\n", playerID, err)
	}
}

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(token, "Bearer ")
}
