// Package storage persists players, friend links, gifts and trade listings.
//
// Two implementations are provided: a PostgreSQL store (lib/pq) used in
// production, and an in-memory store used by tests and when DATABASE_URL
// is not set. Both satisfy the Store interface consumed by the service
// layer and the socket transport.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrConflict = errors.New("storage: conflict")
)

// Player is the persistent identity record. Connected tracks live socket
// presence and is flipped by the transport on handshake and teardown.
type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Connected bool       `json:"connected"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

// FriendLink is a friendship edge. Status is "pending" until the
// addressee accepts.
type FriendLink struct {
	ID        string    `json:"id"`
	Requester string    `json:"requester"`
	Addressee string    `json:"addressee"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
)

// Gift is a claimable item sent from one player to another.
type Gift struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	Recipient string     `json:"recipient"`
	Item      string     `json:"item"`
	Message   string     `json:"message,omitempty"`
	Claimed   bool       `json:"claimed"`
	CreatedAt time.Time  `json:"created_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// Listing is a GTS trade offer: the owner deposits an item and names what
// they want in return.
type Listing struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner"`
	OfferItem  string     `json:"offer_item"`
	WantItem   string     `json:"want_item"`
	Note       string     `json:"note,omitempty"`
	Status     string     `json:"status"`
	TradedWith string     `json:"traded_with,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	TradedAt   *time.Time `json:"traded_at,omitempty"`
}

const (
	ListingOpen      = "open"
	ListingCompleted = "completed"
	ListingWithdrawn = "withdrawn"
)

// ListingQuery filters a GTS search. Zero values match everything.
type ListingQuery struct {
	OfferItem string
	WantItem  string
	Owner     string
	Limit     int
}

// Store is the persistence contract shared by the Postgres and in-memory
// implementations.
type Store interface {
	// Players
	UpsertPlayer(ctx context.Context, id, name string) error
	GetPlayer(ctx context.Context, id string) (*Player, error)
	SetConnected(ctx context.Context, id string, connected bool) error

	// Friends
	CreateFriendRequest(ctx context.Context, requester, addressee string) (*FriendLink, error)
	AcceptFriendRequest(ctx context.Context, requestID, addressee string) (*FriendLink, error)
	RemoveFriend(ctx context.Context, playerID, friendID string) error
	ListFriends(ctx context.Context, playerID string) ([]*FriendLink, error)
	PendingRequests(ctx context.Context, addressee string) ([]*FriendLink, error)

	// Gifts
	CreateGift(ctx context.Context, g *Gift) error
	ClaimGift(ctx context.Context, giftID, recipient string) (*Gift, error)
	ListGifts(ctx context.Context, recipient string) ([]*Gift, error)
	DeleteClaimedGiftsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Listings
	CreateListing(ctx context.Context, l *Listing) error
	GetListing(ctx context.Context, id string) (*Listing, error)
	SearchListings(ctx context.Context, q ListingQuery) ([]*Listing, error)
	CompleteListing(ctx context.Context, id, buyer string) (*Listing, error)
	WithdrawListing(ctx context.Context, id, owner string) (*Listing, error)
	ExpireListings(ctx context.Context, now time.Time) (int, error)
}
