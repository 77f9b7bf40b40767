package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradelink/server/storage"
)

// tradeServiceImpl implements the TradeService interface.
type tradeServiceImpl struct {
	store      storage.Store
	notifier   Notifier
	listingTTL time.Duration
}

// NewTradeService creates a new trade service instance. listingTTL bounds
// how long a deposited listing stays open before the sweeper withdraws it.
func NewTradeService(store storage.Store, notifier Notifier, listingTTL time.Duration) TradeService {
	if listingTTL <= 0 {
		listingTTL = 72 * time.Hour
	}
	return &tradeServiceImpl{
		store:      store,
		notifier:   notifier,
		listingTTL: listingTTL,
	}
}

// Profile returns a player's public profile. With a Name set it renames
// the caller first; with a PlayerID set it looks up that player instead.
func (s *tradeServiceImpl) Profile(ctx context.Context, playerID string, req ProfileRequest) (*ProfileResult, error) {
	if req.Name != "" {
		if err := s.store.UpsertPlayer(ctx, playerID, strings.TrimSpace(req.Name)); err != nil {
			return nil, fmt.Errorf("updating profile: %w", err)
		}
	}

	target := playerID
	if req.PlayerID != "" {
		target = req.PlayerID
	}

	player, err := s.store.GetPlayer(ctx, target)
	if errors.Is(err, storage.ErrNotFound) {
		return &ProfileResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting player %s: %w", target, err)
	}
	return &ProfileResult{Success: true, Player: player}, nil
}

func (s *tradeServiceImpl) FriendRequest(ctx context.Context, requester, addressee string) (*FriendResult, error) {
	if addressee == "" || addressee == requester {
		return &FriendResult{Error: CodeBadRequest}, nil
	}

	link, err := s.store.CreateFriendRequest(ctx, requester, addressee)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return &FriendResult{Error: CodeConflict}, nil
	case errors.Is(err, storage.ErrNotFound):
		return &FriendResult{Error: CodeNotFound}, nil
	case err != nil:
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	s.notifier.Notify(addressee, EventFriendRequest, link)
	return &FriendResult{Success: true, Link: link}, nil
}

func (s *tradeServiceImpl) FriendAccept(ctx context.Context, playerID, requestID string) (*FriendResult, error) {
	if requestID == "" {
		return &FriendResult{Error: CodeBadRequest}, nil
	}

	link, err := s.store.AcceptFriendRequest(ctx, requestID, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		// Wrong addressee and nonexistent request look the same.
		return &FriendResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}

	s.notifier.Notify(link.Requester, EventFriendAccepted, link)
	return &FriendResult{Success: true, Link: link}, nil
}

func (s *tradeServiceImpl) FriendRemove(ctx context.Context, playerID, friendID string) (*FriendResult, error) {
	if friendID == "" {
		return &FriendResult{Error: CodeBadRequest}, nil
	}

	err := s.store.RemoveFriend(ctx, playerID, friendID)
	if errors.Is(err, storage.ErrNotFound) {
		return &FriendResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("removing friend: %w", err)
	}
	return &FriendResult{Success: true}, nil
}

func (s *tradeServiceImpl) FriendList(ctx context.Context, playerID string) (*FriendListResult, error) {
	friends, err := s.store.ListFriends(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	pending, err := s.store.PendingRequests(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	return &FriendListResult{Success: true, Friends: friends, Pending: pending}, nil
}

func (s *tradeServiceImpl) GiftSend(ctx context.Context, sender string, req GiftSendRequest) (*GiftResult, error) {
	if req.Recipient == "" || req.Item == "" || req.Recipient == sender {
		return &GiftResult{Error: CodeBadRequest}, nil
	}

	gift := &storage.Gift{
		ID:        uuid.New().String(),
		Sender:    sender,
		Recipient: req.Recipient,
		Item:      req.Item,
		Message:   req.Message,
	}
	if err := s.store.CreateGift(ctx, gift); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &GiftResult{Error: CodeNotFound}, nil
		}
		return nil, fmt.Errorf("creating gift: %w", err)
	}

	s.notifier.Notify(req.Recipient, EventGiftReceived, gift)
	return &GiftResult{Success: true, Gift: gift}, nil
}

func (s *tradeServiceImpl) GiftClaim(ctx context.Context, playerID, giftID string) (*GiftResult, error) {
	if giftID == "" {
		return &GiftResult{Error: CodeBadRequest}, nil
	}

	gift, err := s.store.ClaimGift(ctx, giftID, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		// Already claimed, wrong recipient and nonexistent all collapse
		// into one answer.
		return &GiftResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming gift: %w", err)
	}
	return &GiftResult{Success: true, Gift: gift}, nil
}

func (s *tradeServiceImpl) GiftList(ctx context.Context, playerID string) (*GiftListResult, error) {
	gifts, err := s.store.ListGifts(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	return &GiftListResult{Success: true, Gifts: gifts}, nil
}

func (s *tradeServiceImpl) Deposit(ctx context.Context, owner string, req DepositRequest) (*ListingResult, error) {
	if req.OfferItem == "" || req.WantItem == "" {
		return &ListingResult{Error: CodeBadRequest}, nil
	}

	listing := &storage.Listing{
		ID:        uuid.New().String(),
		Owner:     owner,
		OfferItem: req.OfferItem,
		WantItem:  req.WantItem,
		Note:      req.Note,
		ExpiresAt: time.Now().Add(s.listingTTL),
	}
	if err := s.store.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}
	return &ListingResult{Success: true, Listing: listing}, nil
}

func (s *tradeServiceImpl) Search(ctx context.Context, q storage.ListingQuery) (*SearchResult, error) {
	listings, err := s.store.SearchListings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching listings: %w", err)
	}
	return &SearchResult{Success: true, Listings: listings}, nil
}

// Trade completes an open listing on behalf of the buyer. The precheck
// produces a precise error code; the conditional update in the store is
// what actually guards against the double-trade race.
func (s *tradeServiceImpl) Trade(ctx context.Context, buyer, listingID string) (*ListingResult, error) {
	if listingID == "" {
		return &ListingResult{Error: CodeBadRequest}, nil
	}

	current, err := s.store.GetListing(ctx, listingID)
	if errors.Is(err, storage.ErrNotFound) {
		return &ListingResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	if current.Owner == buyer {
		return &ListingResult{Error: CodeForbidden}, nil
	}
	if current.Status != storage.ListingOpen {
		return &ListingResult{Error: CodeListingClosed}, nil
	}

	listing, err := s.store.CompleteListing(ctx, listingID, buyer)
	if errors.Is(err, storage.ErrNotFound) {
		// Lost the race: someone traded or withdrew it between the
		// precheck and the update.
		return &ListingResult{Error: CodeListingClosed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("completing listing: %w", err)
	}

	s.notifier.Notify(listing.Owner, EventTradeCompleted, listing)
	return &ListingResult{Success: true, Listing: listing}, nil
}

func (s *tradeServiceImpl) Withdraw(ctx context.Context, owner, listingID string) (*ListingResult, error) {
	if listingID == "" {
		return &ListingResult{Error: CodeBadRequest}, nil
	}

	listing, err := s.store.WithdrawListing(ctx, listingID, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return &ListingResult{Error: CodeNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("withdrawing listing: %w", err)
	}
	return &ListingResult{Success: true, Listing: listing}, nil
}
