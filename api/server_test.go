package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradelink/server/auth"
	"github.com/tradelink/server/game/service"
	"github.com/tradelink/server/storage"
	"github.com/tradelink/server/transport/websocket"
)

type noopNotifier struct{}

func (noopNotifier) Notify(playerID, event string, payload any) {}

func newTestAPI(t *testing.T) (*Server, *storage.Memory, service.TradeService) {
	t.Helper()
	store := storage.NewMemory()
	svc := service.NewTradeService(store, noopNotifier{}, time.Hour)
	ws := websocket.NewServer(websocket.Config{
		Verifier: auth.NewVerifier("test-secret"),
		Presence: store,
	})
	ctx := context.Background()
	for _, id := range []string{"alice", "bob"} {
		if err := store.UpsertPlayer(ctx, id, id); err != nil {
			t.Fatalf("seeding player %s: %v", id, err)
		}
	}
	return NewServer(svc, store, ws), store, svc
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestGetPlayer(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := doGet(t, s, "/api/players/alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var player storage.Player
	if err := json.Unmarshal(rec.Body.Bytes(), &player); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if player.ID != "alice" {
		t.Errorf("player id = %q, want alice", player.ID)
	}

	rec = doGet(t, s, "/api/players/nobody")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing player status = %d, want 404", rec.Code)
	}
}

func TestGetFriendsAndGifts(t *testing.T) {
	s, _, svc := newTestAPI(t)
	ctx := context.Background()

	req, err := svc.FriendRequest(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("FriendRequest() returned error: %v", err)
	}
	if _, err := svc.FriendAccept(ctx, "bob", req.Link.ID); err != nil {
		t.Fatalf("FriendAccept() returned error: %v", err)
	}
	if _, err := svc.GiftSend(ctx, "alice", service.GiftSendRequest{Recipient: "bob", Item: "berry"}); err != nil {
		t.Fatalf("GiftSend() returned error: %v", err)
	}

	rec := doGet(t, s, "/api/players/bob/friends")
	if rec.Code != http.StatusOK {
		t.Fatalf("friends status = %d, want 200", rec.Code)
	}
	var friends service.FriendListResult
	json.Unmarshal(rec.Body.Bytes(), &friends)
	if len(friends.Friends) != 1 {
		t.Errorf("friends = %d, want 1", len(friends.Friends))
	}

	rec = doGet(t, s, "/api/players/bob/gifts")
	if rec.Code != http.StatusOK {
		t.Fatalf("gifts status = %d, want 200", rec.Code)
	}
	var gifts service.GiftListResult
	json.Unmarshal(rec.Body.Bytes(), &gifts)
	if len(gifts.Gifts) != 1 || gifts.Gifts[0].Item != "berry" {
		t.Errorf("gifts = %+v, want one berry", gifts.Gifts)
	}
}

func TestSearchListings(t *testing.T) {
	s, _, svc := newTestAPI(t)
	ctx := context.Background()

	dep, err := svc.Deposit(ctx, "alice", service.DepositRequest{OfferItem: "charizard", WantItem: "blastoise"})
	if err != nil {
		t.Fatalf("Deposit() returned error: %v", err)
	}
	if _, err := svc.Deposit(ctx, "bob", service.DepositRequest{OfferItem: "eevee", WantItem: "ditto"}); err != nil {
		t.Fatalf("Deposit() returned error: %v", err)
	}

	rec := doGet(t, s, "/api/listings?offer=charizard")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, want 200", rec.Code)
	}
	var result service.SearchResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result.Listings) != 1 || result.Listings[0].OfferItem != "charizard" {
		t.Errorf("search result = %+v, want one charizard listing", result.Listings)
	}

	rec = doGet(t, s, "/api/listings/"+dep.Listing.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get listing status = %d, want 200", rec.Code)
	}
	var listing storage.Listing
	json.Unmarshal(rec.Body.Bytes(), &listing)
	if listing.ID != dep.Listing.ID {
		t.Errorf("listing id = %q, want %q", listing.ID, dep.Listing.ID)
	}

	rec = doGet(t, s, "/api/listings/no-such-listing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing listing status = %d, want 404", rec.Code)
	}
}

func TestStatsAndHealth(t *testing.T) {
	s, _, _ := newTestAPI(t)

	rec := doGet(t, s, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}
	var stats map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats["sessions"].(float64) != 0 {
		t.Errorf("sessions = %v, want 0", stats["sessions"])
	}
	if _, present := stats["avg_latency_ms"]; present {
		t.Error("avg_latency_ms present with no samples")
	}

	rec = doGet(t, s, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("rooms status = %d, want 200", rec.Code)
	}

	rec = doGet(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}

	rec = doGet(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
}
