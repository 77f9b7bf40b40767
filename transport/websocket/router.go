package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/tradelink/server/metrics"
)

// Router decodes inbound frames, intercepts the built-in room events and
// dispatches everything else to the handler table. The table is fixed at
// construction and never mutated afterwards, so concurrent reads need no
// lock.
type Router struct {
	handlers map[string]Handler
	registry *Registry
	rooms    *Rooms
	notifier *Notifier
}

func NewRouter(handlers map[string]Handler, registry *Registry, rooms *Rooms, notifier *Notifier) *Router {
	table := make(map[string]Handler, len(handlers))
	for name, h := range handlers {
		table[name] = h
	}
	return &Router{
		handlers: table,
		registry: registry,
		rooms:    rooms,
		notifier: notifier,
	}
}

// Dispatch processes one raw inbound frame from the given session. It is
// called inline from the session's read loop, which is what preserves
// per-connection arrival order. Protocol faults (malformed frame, unknown
// event, unresolvable sender) are logged and dropped without a reply; the
// connection stays open.
func (r *Router) Dispatch(ctx context.Context, s *Session, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		log.Printf("[WS] dropping malformed frame: %v\n", err)
		return
	}

	playerID, ok := r.registry.PlayerID(s)
	if !ok {
		log.Printf("[WS] dropping %q frame from unregistered connection\n", frame.Event)
		return
	}

	switch frame.Event {
	case EventCreateRoom:
		r.createRoom(s, playerID)
		return
	case EventJoinRoom:
		r.joinRoom(s, playerID, frame.Data)
		return
	case EventLeaveRoom:
		r.leaveRoom(playerID)
		return
	}

	handler, ok := r.handlers[frame.Event]
	if !ok {
		log.Printf("[WS] no handler for event %q from %s\n", frame.Event, playerID)
		return
	}

	start := time.Now()
	result, err := handler(ctx, playerID, frame.Data)
	if err != nil {
		// Handlers return expected business failures in their payloads;
		// anything surfacing here is unexpected. Log and swallow: no
		// reply, no disconnect.
		log.Printf("[WS] handler %q failed for %s: %v\n", frame.Event, playerID, err)
		return
	}
	elapsed := time.Since(start)
	s.recordLatency(elapsed)
	metrics.DispatchSeconds.WithLabelValues(frame.Event).Observe(elapsed.Seconds())

	if err := s.Send(frame.Event, result); err != nil {
		log.Printf("[WS] dropping %q reply to %s: %v\n", frame.Event, playerID, err)
	}
}

func (r *Router) createRoom(s *Session, playerID string) {
	created, left := r.rooms.Create(playerID)
	r.fanOut(left)
	metrics.LiveRooms.Set(float64(r.rooms.Count()))
	if err := s.Send(EventRoomCreated, created); err != nil {
		log.Printf("[WS] dropping %s reply to %s: %v\n", EventRoomCreated, playerID, err)
	}
}

func (r *Router) joinRoom(s *Session, playerID string, data json.RawMessage) {
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.Send(EventError, errorPayload{Error: CodeRoomFullOrNotFound})
		return
	}

	joined, left, ok := r.rooms.Join(playerID, req.RoomID)
	if !ok {
		// Full and nonexistent are deliberately indistinguishable.
		s.Send(EventError, errorPayload{Error: CodeRoomFullOrNotFound})
		return
	}
	r.fanOut(left)
	// Every current member including the joiner sees the updated room.
	r.fanOut(joined)
	metrics.LiveRooms.Set(float64(r.rooms.Count()))
}

func (r *Router) leaveRoom(playerID string) {
	remaining, ok := r.rooms.Leave(playerID)
	if !ok {
		return
	}
	r.fanOut(remaining)
	metrics.LiveRooms.Set(float64(r.rooms.Count()))
}

// fanOut pushes a room_updated to every member of the snapshot. Offline
// members are skipped by the notifier.
func (r *Router) fanOut(room *Room) {
	if room == nil {
		return
	}
	for _, member := range room.Members {
		r.notifier.Notify(member, EventRoomUpdated, room)
	}
}
