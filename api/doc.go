// Package api provides the HTTP REST mirror of the trade server.
//
// The api package implements:
//   - Read-only player, friend, gift and listing endpoints
//   - Live room and server statistics endpoints
//   - WebSocket upgrade handling
//   - Health check and Prometheus metrics
//
// Endpoints:
//
// Players:
//   - GET /api/players/{id} - Public profile and presence
//   - GET /api/players/{id}/friends - Accepted friends and pending requests
//   - GET /api/players/{id}/gifts - Unclaimed gifts
//
// Listings:
//   - GET /api/listings - Search open listings (offer, want, owner, limit)
//   - GET /api/listings/{id} - One listing regardless of status
//
// Live state:
//   - GET /api/rooms - Open trade rooms
//   - GET /api/stats - Session count, room count, average dispatch latency
//
// Infrastructure:
//   - GET /healthz - Liveness probe
//   - GET /metrics - Prometheus metrics
//   - GET /ws - WebSocket upgrade (authenticated, see transport/websocket)
//
// All mutations go through the socket protocol; the REST surface exists
// for dashboards, tooling and the MCP proxy. Errors are returned as JSON
// with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
