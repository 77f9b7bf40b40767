package service

import "github.com/tradelink/server/storage"

// Machine-readable codes for expected business failures.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeForbidden     = "FORBIDDEN"
	CodeBadRequest    = "BAD_REQUEST"
	CodeListingClosed = "LISTING_CLOSED"
)

// ProfileRequest optionally renames the caller or targets another player.
type ProfileRequest struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ProfileResult carries one player's public profile.
type ProfileResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Player  *storage.Player `json:"player,omitempty"`
}

// FriendResult is the outcome of a single friend mutation.
type FriendResult struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Link    *storage.FriendLink `json:"link,omitempty"`
}

// FriendListResult carries accepted friendships and inbound pending
// requests.
type FriendListResult struct {
	Success bool                  `json:"success"`
	Friends []*storage.FriendLink `json:"friends"`
	Pending []*storage.FriendLink `json:"pending"`
}

// GiftSendRequest names the recipient and the item being given away.
type GiftSendRequest struct {
	Recipient string `json:"recipient"`
	Item      string `json:"item"`
	Message   string `json:"message,omitempty"`
}

// GiftResult is the outcome of sending or claiming one gift.
type GiftResult struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Gift    *storage.Gift `json:"gift,omitempty"`
}

// GiftListResult carries the caller's unclaimed gifts.
type GiftListResult struct {
	Success bool            `json:"success"`
	Gifts   []*storage.Gift `json:"gifts"`
}

// DepositRequest opens a GTS listing: offer an item, name the wanted one.
type DepositRequest struct {
	OfferItem string `json:"offerItem"`
	WantItem  string `json:"wantItem"`
	Note      string `json:"note,omitempty"`
}

// ListingResult is the outcome of a single listing mutation.
type ListingResult struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Listing *storage.Listing `json:"listing,omitempty"`
}

// SearchResult carries matching open listings.
type SearchResult struct {
	Success  bool               `json:"success"`
	Listings []*storage.Listing `json:"listings"`
}
