package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (d *DB) CreateListing(ctx context.Context, l *Listing) error {
	err := d.conn.QueryRowContext(ctx, `
		INSERT INTO listings (id, owner, offer_item, want_item, note, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, l.ID, l.Owner, l.OfferItem, l.WantItem, l.Note, ListingOpen, l.ExpiresAt).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating listing: %w", err)
	}
	l.Status = ListingOpen
	return nil
}

func (d *DB) GetListing(ctx context.Context, id string) (*Listing, error) {
	var l Listing
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, owner, offer_item, want_item, note, status, traded_with, created_at, expires_at, traded_at
		FROM listings WHERE id = $1
	`, id).Scan(&l.ID, &l.Owner, &l.OfferItem, &l.WantItem, &l.Note, &l.Status, &l.TradedWith, &l.CreatedAt, &l.ExpiresAt, &l.TradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	return &l, nil
}

func (d *DB) SearchListings(ctx context.Context, q ListingQuery) ([]*Listing, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, owner, offer_item, want_item, note, status, traded_with, created_at, expires_at, traded_at
		FROM listings
		WHERE status = $1
		  AND ($2 = '' OR offer_item = $2)
		  AND ($3 = '' OR want_item = $3)
		  AND ($4 = '' OR owner = $4)
		ORDER BY created_at DESC
		LIMIT $5
	`, ListingOpen, q.OfferItem, q.WantItem, q.Owner, limit)
	if err != nil {
		return nil, fmt.Errorf("searching listings: %w", err)
	}
	defer rows.Close()

	listings := make([]*Listing, 0)
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.Owner, &l.OfferItem, &l.WantItem, &l.Note, &l.Status, &l.TradedWith, &l.CreatedAt, &l.ExpiresAt, &l.TradedAt); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// CompleteListing atomically flips an open listing to completed. The
// WHERE clause is the race guard: two concurrent trades for the same
// listing cannot both match status = 'open'.
func (d *DB) CompleteListing(ctx context.Context, id, buyer string) (*Listing, error) {
	var l Listing
	err := d.conn.QueryRowContext(ctx, `
		UPDATE listings SET status = $1, traded_with = $2, traded_at = now()
		WHERE id = $3 AND status = $4 AND owner <> $2
		RETURNING id, owner, offer_item, want_item, note, status, traded_with, created_at, expires_at, traded_at
	`, ListingCompleted, buyer, id, ListingOpen).
		Scan(&l.ID, &l.Owner, &l.OfferItem, &l.WantItem, &l.Note, &l.Status, &l.TradedWith, &l.CreatedAt, &l.ExpiresAt, &l.TradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("completing listing: %w", err)
	}
	return &l, nil
}

func (d *DB) WithdrawListing(ctx context.Context, id, owner string) (*Listing, error) {
	var l Listing
	err := d.conn.QueryRowContext(ctx, `
		UPDATE listings SET status = $1
		WHERE id = $2 AND owner = $3 AND status = $4
		RETURNING id, owner, offer_item, want_item, note, status, traded_with, created_at, expires_at, traded_at
	`, ListingWithdrawn, id, owner, ListingOpen).
		Scan(&l.ID, &l.Owner, &l.OfferItem, &l.WantItem, &l.Note, &l.Status, &l.TradedWith, &l.CreatedAt, &l.ExpiresAt, &l.TradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("withdrawing listing: %w", err)
	}
	return &l, nil
}

func (d *DB) ExpireListings(ctx context.Context, now time.Time) (int, error) {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE listings SET status = $1 WHERE status = $2 AND expires_at < $3
	`, ListingWithdrawn, ListingOpen, now)
	if err != nil {
		return 0, fmt.Errorf("expiring listings: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
