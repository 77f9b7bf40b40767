package websocket

import (
	"context"
	"encoding/json"
)

// Frame is the wire shape of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outFrame carries an arbitrary payload on the way out.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Handler implements one event's business logic. It returns the reply
// payload; a returned error is logged and swallowed by the router (no
// reply is sent). Expected business failures belong in the payload as
// {success:false, error:...}, not in the error return.
type Handler func(ctx context.Context, playerID string, data json.RawMessage) (any, error)

// Handshake rejection codes.
const (
	CodeMissingToken     = "ERR_MISSING_TOKEN"
	CodeInvalidToken     = "ERR_VALID_TOKEN"
	CodeMissingPlayerID  = "ERR_MISSING_PLAYER_ID"
	CodeAlreadyConnected = "ERR_ALREADY_CONNECTED"
)

// Room failure code, indistinguishable between "full" and "not found".
const CodeRoomFullOrNotFound = "ROOM_FULL_OR_NOT_FOUND"

// Built-in events handled by the core itself.
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
)

// Events emitted by the core.
const (
	EventError          = "error"
	EventRoomCreated    = "room_created"
	EventRoomUpdated    = "room_updated"
	EventServerShutdown = "server_shutdown"
)

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
