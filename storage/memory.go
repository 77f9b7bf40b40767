package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the in-memory Store. It mirrors the Postgres semantics and is
// used by tests and when the server runs without a database.
type Memory struct {
	mu       sync.Mutex
	players  map[string]*Player
	friends  map[string]*FriendLink
	gifts    map[string]*Gift
	listings map[string]*Listing
}

func NewMemory() *Memory {
	return &Memory{
		players:  make(map[string]*Player),
		friends:  make(map[string]*FriendLink),
		gifts:    make(map[string]*Gift),
		listings: make(map[string]*Listing),
	}
}

func (m *Memory) UpsertPlayer(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		p = &Player{ID: id}
		m.players[id] = p
	}
	if name != "" {
		p.Name = name
	}
	return nil
}

// hasPlayer mirrors the schema's foreign keys on player columns. Callers
// hold mu.
func (m *Memory) hasPlayer(id string) bool {
	_, ok := m.players[id]
	return ok
}

func (m *Memory) GetPlayer(_ context.Context, id string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) SetConnected(_ context.Context, id string, connected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		p = &Player{ID: id}
		m.players[id] = p
	}
	now := time.Now()
	p.Connected = connected
	p.LastSeen = &now
	return nil
}

func (m *Memory) CreateFriendRequest(_ context.Context, requester, addressee string) (*FriendLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPlayer(requester) || !m.hasPlayer(addressee) {
		return nil, ErrNotFound
	}
	for _, l := range m.friends {
		if (l.Requester == requester && l.Addressee == addressee) ||
			(l.Requester == addressee && l.Addressee == requester) {
			return nil, ErrConflict
		}
	}
	link := &FriendLink{
		ID:        uuid.New().String(),
		Requester: requester,
		Addressee: addressee,
		Status:    FriendPending,
		CreatedAt: time.Now(),
	}
	m.friends[link.ID] = link
	cp := *link
	return &cp, nil
}

func (m *Memory) AcceptFriendRequest(_ context.Context, requestID, addressee string) (*FriendLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.friends[requestID]
	if !ok || l.Addressee != addressee || l.Status != FriendPending {
		return nil, ErrNotFound
	}
	l.Status = FriendAccepted
	cp := *l
	return &cp, nil
}

func (m *Memory) RemoveFriend(_ context.Context, playerID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.friends {
		if (l.Requester == playerID && l.Addressee == friendID) ||
			(l.Requester == friendID && l.Addressee == playerID) {
			delete(m.friends, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListFriends(_ context.Context, playerID string) ([]*FriendLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := make([]*FriendLink, 0)
	for _, l := range m.friends {
		if l.Status == FriendAccepted && (l.Requester == playerID || l.Addressee == playerID) {
			cp := *l
			links = append(links, &cp)
		}
	}
	return links, nil
}

func (m *Memory) PendingRequests(_ context.Context, addressee string) ([]*FriendLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := make([]*FriendLink, 0)
	for _, l := range m.friends {
		if l.Status == FriendPending && l.Addressee == addressee {
			cp := *l
			links = append(links, &cp)
		}
	}
	return links, nil
}

func (m *Memory) CreateGift(_ context.Context, g *Gift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPlayer(g.Sender) || !m.hasPlayer(g.Recipient) {
		return ErrNotFound
	}
	g.CreatedAt = time.Now()
	cp := *g
	m.gifts[g.ID] = &cp
	return nil
}

func (m *Memory) ClaimGift(_ context.Context, giftID, recipient string) (*Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gifts[giftID]
	if !ok || g.Recipient != recipient || g.Claimed {
		return nil, ErrNotFound
	}
	now := time.Now()
	g.Claimed = true
	g.ClaimedAt = &now
	cp := *g
	return &cp, nil
}

func (m *Memory) ListGifts(_ context.Context, recipient string) ([]*Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gifts := make([]*Gift, 0)
	for _, g := range m.gifts {
		if g.Recipient == recipient && !g.Claimed {
			cp := *g
			gifts = append(gifts, &cp)
		}
	}
	return gifts, nil
}

func (m *Memory) DeleteClaimedGiftsBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, g := range m.gifts {
		if g.Claimed && g.ClaimedAt != nil && g.ClaimedAt.Before(cutoff) {
			delete(m.gifts, id)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) CreateListing(_ context.Context, l *Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.Status = ListingOpen
	l.CreatedAt = time.Now()
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m *Memory) GetListing(_ context.Context, id string) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *Memory) SearchListings(_ context.Context, q ListingQuery) ([]*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	listings := make([]*Listing, 0)
	for _, l := range m.listings {
		if l.Status != ListingOpen {
			continue
		}
		if q.OfferItem != "" && l.OfferItem != q.OfferItem {
			continue
		}
		if q.WantItem != "" && l.WantItem != q.WantItem {
			continue
		}
		if q.Owner != "" && l.Owner != q.Owner {
			continue
		}
		cp := *l
		listings = append(listings, &cp)
		if len(listings) >= limit {
			break
		}
	}
	return listings, nil
}

func (m *Memory) CompleteListing(_ context.Context, id, buyer string) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.Status != ListingOpen || l.Owner == buyer {
		return nil, ErrNotFound
	}
	now := time.Now()
	l.Status = ListingCompleted
	l.TradedWith = buyer
	l.TradedAt = &now
	cp := *l
	return &cp, nil
}

func (m *Memory) WithdrawListing(_ context.Context, id, owner string) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.Status != ListingOpen || l.Owner != owner {
		return nil, ErrNotFound
	}
	l.Status = ListingWithdrawn
	cp := *l
	return &cp, nil
}

func (m *Memory) ExpireListings(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expired := 0
	for _, l := range m.listings {
		if l.Status == ListingOpen && l.ExpiresAt.Before(now) {
			l.Status = ListingWithdrawn
			expired++
		}
	}
	return expired, nil
}
