package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradelink/server/config"
	"github.com/tradelink/server/storage"
	"github.com/tradelink/server/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestOpenStoreMemoryFallback(t *testing.T) {
	store, closeStore, err := openStore(config.Config{})
	if err != nil {
		t.Fatalf("openStore() returned error: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*storage.Memory); !ok {
		t.Errorf("store without DATABASE_URL = %T, want *storage.Memory", store)
	}
}

func TestBuildWebSocketServer(t *testing.T) {
	cfg := config.Config{
		TokenSecret:      "secret",
		RoomCapacity:     4,
		RateLimitEnabled: true,
		MessagesPerSec:   100,
		RateLimitBurst:   200,
	}

	ws := buildWebSocketServer(cfg, storage.NewMemory())
	if ws == nil {
		t.Fatal("buildWebSocketServer() returned nil")
	}
	if ws.Registry() == nil || ws.Rooms() == nil || ws.Notifier() == nil {
		t.Error("server components not initialized")
	}
}

func TestMCPHTTPHandlerRejectsGet(t *testing.T) {
	handler := mcpHTTPHandler(mcp.NewClient("http://localhost:8080"))

	req := httptest.NewRequest("GET", "/mcp", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /mcp status = %d, want 405", rec.Code)
	}
}

func TestMCPHTTPHandlerServesMessage(t *testing.T) {
	handler := mcpHTTPHandler(mcp.NewClient("http://localhost:8080"))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /mcp status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "server_stats") {
		t.Errorf("tools/list response missing server_stats tool: %s", rec.Body.String())
	}
}
