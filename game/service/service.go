package service

import (
	"context"

	"github.com/tradelink/server/storage"
)

// TradeService defines all player-facing trade operations.
type TradeService interface {
	// Profile
	Profile(ctx context.Context, playerID string, req ProfileRequest) (*ProfileResult, error)

	// Friends
	FriendRequest(ctx context.Context, requester, addressee string) (*FriendResult, error)
	FriendAccept(ctx context.Context, playerID, requestID string) (*FriendResult, error)
	FriendRemove(ctx context.Context, playerID, friendID string) (*FriendResult, error)
	FriendList(ctx context.Context, playerID string) (*FriendListResult, error)

	// Gifts
	GiftSend(ctx context.Context, sender string, req GiftSendRequest) (*GiftResult, error)
	GiftClaim(ctx context.Context, playerID, giftID string) (*GiftResult, error)
	GiftList(ctx context.Context, playerID string) (*GiftListResult, error)

	// GTS listings
	Deposit(ctx context.Context, owner string, req DepositRequest) (*ListingResult, error)
	Search(ctx context.Context, q storage.ListingQuery) (*SearchResult, error)
	Trade(ctx context.Context, buyer, listingID string) (*ListingResult, error)
	Withdraw(ctx context.Context, owner, listingID string) (*ListingResult, error)
}

// Notifier pushes unsolicited events to a player's live session, if any.
// Offline recipients are silently skipped. Satisfied by the websocket
// transport's notifier.
type Notifier interface {
	Notify(playerID, event string, payload any)
}

// Events pushed to counterparties.
const (
	EventFriendRequest  = "friend_request"
	EventFriendAccepted = "friend_accepted"
	EventGiftReceived   = "gift_received"
	EventTradeCompleted = "trade_completed"
)
