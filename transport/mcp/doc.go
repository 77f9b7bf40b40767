// Package mcp provides a Model Context Protocol surface for the trade
// server.
//
// The mcp package implements:
//   - MCP server for AI agent and tooling integration
//   - Read-only tool definitions proxied to the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools:
//   - server_stats: Live session count, room count, average dispatch latency
//   - get_player: Public profile and presence for one player
//   - search_listings: Search open GTS trade listings
//   - get_listing: One listing by id, regardless of status
//   - list_rooms: Open trade rooms and their members
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: HTTP endpoint for remote MCP integration
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	httpServer := server.NewStreamableHTTPServer(client.GetMCPServer())
//	mux.Handle("/mcp", httpServer)
//
// All trade mutations go through the authenticated WebSocket protocol;
// this interface is observation only.
package mcp
