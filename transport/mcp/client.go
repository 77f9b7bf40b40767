package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tradelink/server/game/service"
	"github.com/tradelink/server/storage"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tradelink Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tradelink Server - MCP Interface

This is a thin client that proxies read-only requests to the REST API.

AVAILABLE TOOLS:
- server_stats: Live session count, room count, average dispatch latency
- get_player: Public profile and presence for one player
- search_listings: Search open GTS trade listings
- get_listing: One listing by id, regardless of status
- list_rooms: Open trade rooms and their members

All trade mutations (friends, gifts, deposits, trades) happen over the
authenticated WebSocket protocol, not through this interface.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get live server statistics: connected sessions, open rooms, average dispatch latency",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_player",
		Description: "Get a player's public profile and presence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID to look up",
				},
			},
			Required: []string{"player_id"},
		},
	}, c.handleGetPlayer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_listings",
		Description: "Search open GTS trade listings by offered item, wanted item or owner",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"offer": map[string]interface{}{
					"type":        "string",
					"description": "Filter by offered item (optional)",
				},
				"want": map[string]interface{}{
					"type":        "string",
					"description": "Filter by wanted item (optional)",
				},
				"owner": map[string]interface{}{
					"type":        "string",
					"description": "Filter by owner player ID (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum results (default 50)",
				},
			},
		},
	}, c.handleSearchListings)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_listing",
		Description: "Get one trade listing by id, regardless of status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"listing_id": map[string]interface{}{
					"type":        "string",
					"description": "Listing ID to retrieve",
				},
			},
			Required: []string{"listing_id"},
		},
	}, c.handleGetListing)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List open trade rooms and their members",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats struct {
		Sessions     int      `json:"sessions"`
		Players      []string `json:"players"`
		Rooms        int      `json:"rooms"`
		AvgLatencyMS *float64 `json:"avg_latency_ms"`
	}

	if err := c.apiCall("GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Sessions: %d\nRooms: %d\n", stats.Sessions, stats.Rooms))
	if stats.AvgLatencyMS != nil {
		b.WriteString(fmt.Sprintf("Avg dispatch latency: %.2fms\n", *stats.AvgLatencyMS))
	} else {
		b.WriteString("Avg dispatch latency: no samples\n")
	}
	if len(stats.Players) > 0 {
		b.WriteString("Connected: " + strings.Join(stats.Players, ", ") + "\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetPlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	playerID, _ := args["player_id"].(string)

	var player storage.Player
	if err := c.apiCall("GET", fmt.Sprintf("/api/players/%s", playerID), nil, &player); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := "offline"
	if player.Connected {
		status = "online"
	}
	result := fmt.Sprintf("Player: %s\nName: %s\nStatus: %s\n", player.ID, player.Name, status)
	if player.LastSeen != nil {
		result += fmt.Sprintf("Last seen: %s\n", player.LastSeen.Format("2006-01-02 15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSearchListings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	params := "?"
	if offer, _ := args["offer"].(string); offer != "" {
		params += "offer=" + offer + "&"
	}
	if want, _ := args["want"].(string); want != "" {
		params += "want=" + want + "&"
	}
	if owner, _ := args["owner"].(string); owner != "" {
		params += "owner=" + owner + "&"
	}
	if limit, ok := args["limit"].(float64); ok {
		params += fmt.Sprintf("limit=%d&", int(limit))
	}

	var response service.SearchResult
	if err := c.apiCall("GET", "/api/listings"+params, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Open Listings (%d):\n\n", len(response.Listings))
	for _, l := range response.Listings {
		result += formatListing(l)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	listingID, _ := args["listing_id"].(string)

	var listing storage.Listing
	if err := c.apiCall("GET", fmt.Sprintf("/api/listings/%s", listingID), nil, &listing); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatListing(&listing)), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int `json:"count"`
		Rooms []struct {
			ID      string   `json:"room_id"`
			Members []string `json:"members"`
		} `json:"rooms"`
	}

	if err := c.apiCall("GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Open Rooms (%d):\n\n", response.Count)
	for _, room := range response.Rooms {
		result += fmt.Sprintf("- %s: %s\n", room.ID, strings.Join(room.Members, ", "))
	}

	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatListing(l *storage.Listing) string {
	line := fmt.Sprintf("- %s: %s wants %s for %s [%s]",
		l.ID, l.Owner, l.WantItem, l.OfferItem, l.Status)
	if l.Note != "" {
		line += " // " + l.Note
	}
	if l.TradedWith != "" {
		line += fmt.Sprintf(" (traded with %s)", l.TradedWith)
	}
	return line + "\n"
}
