// Package websocket is the socket core of the Trade Link server: it binds
// authenticated connections to player identities and routes typed events
// between them.
//
// The package implements:
//   - Handshake authentication (signed token + player id) on upgrade
//   - A session registry mapping each player id to exactly one live connection
//   - An event router dispatching {event, data} JSON frames to handlers
//   - Ephemeral trade rooms with join/leave/broadcast semantics
//   - Targeted best-effort pushes to individual players
//   - A drain-then-close shutdown coordinator
//
// Wire Protocol:
//
// Every message in both directions is a single JSON text frame of the shape
// {"event": string, "data": <event-specific JSON>}. Replies echo the event
// name of the request. Malformed inbound frames and unknown event names are
// logged and dropped without a reply; clients apply their own timeouts.
//
// Handshake:
//
// Clients present an Authorization token and an X-Player-ID header (query
// parameters token/playerId work for browser clients). Failures are answered
// with one {event:"error"} frame naming ERR_MISSING_TOKEN, ERR_VALID_TOKEN,
// ERR_MISSING_PLAYER_ID or ERR_ALREADY_CONNECTED, then the connection is
// closed. A player id can hold at most one live session; a second handshake
// for the same id is rejected, never merged.
//
// Ordering:
//
// Frames from one connection are dispatched strictly in arrival order; the
// dispatch happens inline in that connection's read loop. Frames from
// different connections are processed concurrently with no relative ordering.
// The registry and room table are the only shared mutable state and each is
// guarded by a single mutex; broadcasts snapshot the session set before
// sending so registration is never blocked by a slow peer.
package websocket
