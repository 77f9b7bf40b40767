// Package events binds the socket event names to trade service
// operations. Each handler decodes its payload, calls the service and
// returns the result payload for the router to send back under the same
// event name.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tradelink/server/game/service"
	"github.com/tradelink/server/storage"
	"github.com/tradelink/server/transport/websocket"
)

// Inbound event names.
const (
	PlayerProfile = "player_profile"

	FriendRequest = "friend_request"
	FriendAccept  = "friend_accept"
	FriendRemove  = "friend_remove"
	FriendList    = "friend_list"

	GiftSend  = "gift_send"
	GiftClaim = "gift_claim"
	GiftList  = "gift_list"

	GTSDeposit  = "gts_deposit"
	GTSSearch   = "gts_search"
	GTSTrade    = "gts_trade"
	GTSWithdraw = "gts_withdraw"
)

// Handlers builds the full event table for the socket router.
func Handlers(svc service.TradeService) map[string]websocket.Handler {
	return map[string]websocket.Handler{
		PlayerProfile: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req service.ProfileRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.Profile(ctx, playerID, req)
		},

		FriendRequest: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				PlayerID string `json:"playerId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.FriendRequest(ctx, playerID, req.PlayerID)
		},

		FriendAccept: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				RequestID string `json:"requestId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.FriendAccept(ctx, playerID, req.RequestID)
		},

		FriendRemove: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				PlayerID string `json:"playerId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.FriendRemove(ctx, playerID, req.PlayerID)
		},

		FriendList: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			return svc.FriendList(ctx, playerID)
		},

		GiftSend: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req service.GiftSendRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.GiftSend(ctx, playerID, req)
		},

		GiftClaim: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				GiftID string `json:"giftId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.GiftClaim(ctx, playerID, req.GiftID)
		},

		GiftList: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			return svc.GiftList(ctx, playerID)
		},

		GTSDeposit: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req service.DepositRequest
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.Deposit(ctx, playerID, req)
		},

		GTSSearch: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				OfferItem string `json:"offerItem"`
				WantItem  string `json:"wantItem"`
				Owner     string `json:"owner"`
				Limit     int    `json:"limit"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.Search(ctx, storage.ListingQuery{
				OfferItem: req.OfferItem,
				WantItem:  req.WantItem,
				Owner:     req.Owner,
				Limit:     req.Limit,
			})
		},

		GTSTrade: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				ListingID string `json:"listingId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.Trade(ctx, playerID, req.ListingID)
		},

		GTSWithdraw: func(ctx context.Context, playerID string, data json.RawMessage) (any, error) {
			var req struct {
				ListingID string `json:"listingId"`
			}
			if err := decode(data, &req); err != nil {
				return nil, err
			}
			return svc.Withdraw(ctx, playerID, req.ListingID)
		},
	}
}

// decode tolerates an absent payload; a present but malformed one is an
// error so the router drops the frame.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}
