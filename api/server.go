package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradelink/server/game/service"
	"github.com/tradelink/server/metrics"
	"github.com/tradelink/server/storage"
	"github.com/tradelink/server/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	service service.TradeService
	store   storage.Store
	ws      *websocket.Server
	router  *mux.Router
}

// NewServer creates a new API server.
func NewServer(tradeService service.TradeService, store storage.Store, ws *websocket.Server) *Server {
	s := &Server{
		service: tradeService,
		store:   store,
		ws:      ws,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Players
	api.HandleFunc("/players/{id}", s.handleGetPlayer).Methods("GET")
	api.HandleFunc("/players/{id}/friends", s.handleGetFriends).Methods("GET")
	api.HandleFunc("/players/{id}/gifts", s.handleGetGifts).Methods("GET")

	// Listings
	api.HandleFunc("/listings", s.handleSearchListings).Methods("GET")
	api.HandleFunc("/listings/{id}", s.handleGetListing).Methods("GET")

	// Live state
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.ws.HandleWS)

	// Infrastructure
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying mux so main can mount extra routes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Player Handlers

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	player, err := s.store.GetPlayer(r.Context(), playerID)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, player)
}

func (s *Server) handleGetFriends(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	result, err := s.service.FriendList(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetGifts(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	result, err := s.service.GiftList(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Listing Handlers

func (s *Server) handleSearchListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := storage.ListingQuery{
		OfferItem: query.Get("offer"),
		WantItem:  query.Get("want"),
		Owner:     query.Get("owner"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			q.Limit = l
		}
	}

	result, err := s.service.Search(r.Context(), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listingID := mux.Vars(r)["id"]

	listing, err := s.store.GetListing(r.Context(), listingID)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "listing not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, listing)
}

// Live State Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.ws.Rooms().List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"sessions": s.ws.Registry().Count(),
		"players":  s.ws.Registry().PlayerIDs(),
		"rooms":    s.ws.Rooms().Count(),
	}
	if avg, ok := s.ws.Registry().AverageLatency(); ok {
		stats["avg_latency_ms"] = float64(avg) / float64(time.Millisecond)
	}

	respondJSON(w, http.StatusOK, stats)
}

// Health check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
