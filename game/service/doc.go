// Package service provides the business logic layer for the trade server.
//
// The service package implements:
//   - Player profiles and presence
//   - Friend requests, acceptance and removal
//   - Gift sending and claiming
//   - GTS trade listings: deposit, search, trade, withdraw
//
// Core Interfaces:
//
// TradeService is the main service interface; every socket event and REST
// route maps onto one of its operations. Notifier abstracts the push side
// of the socket transport so the service can notify counterparties
// (friend requests, incoming gifts, completed trades) without depending
// on the transport package.
//
// Architecture:
//
// The service layer sits between the transport layer (WebSocket/HTTP/MCP)
// and the storage layer. Operations return result payloads with a Success
// flag and a machine-readable error code for expected business failures;
// the error return is reserved for unexpected faults such as a storage
// outage. Counterparty pushes are best-effort and never fail the
// operation that triggered them.
package service
