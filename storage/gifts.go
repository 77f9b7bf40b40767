package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (d *DB) CreateGift(ctx context.Context, g *Gift) error {
	err := d.conn.QueryRowContext(ctx, `
		INSERT INTO gifts (id, sender, recipient, item, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, g.ID, g.Sender, g.Recipient, g.Item, g.Message).Scan(&g.CreatedAt)
	if isForeignKeyViolation(err) {
		// Sender or recipient has no player row.
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("creating gift: %w", err)
	}
	return nil
}

func (d *DB) ClaimGift(ctx context.Context, giftID, recipient string) (*Gift, error) {
	var g Gift
	err := d.conn.QueryRowContext(ctx, `
		UPDATE gifts SET claimed = TRUE, claimed_at = now()
		WHERE id = $1 AND recipient = $2 AND claimed = FALSE
		RETURNING id, sender, recipient, item, message, claimed, created_at, claimed_at
	`, giftID, recipient).
		Scan(&g.ID, &g.Sender, &g.Recipient, &g.Item, &g.Message, &g.Claimed, &g.CreatedAt, &g.ClaimedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claiming gift: %w", err)
	}
	return &g, nil
}

func (d *DB) ListGifts(ctx context.Context, recipient string) ([]*Gift, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, sender, recipient, item, message, claimed, created_at, claimed_at
		FROM gifts WHERE recipient = $1 AND claimed = FALSE
		ORDER BY created_at
	`, recipient)
	if err != nil {
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	defer rows.Close()

	gifts := make([]*Gift, 0)
	for rows.Next() {
		var g Gift
		if err := rows.Scan(&g.ID, &g.Sender, &g.Recipient, &g.Item, &g.Message, &g.Claimed, &g.CreatedAt, &g.ClaimedAt); err != nil {
			return nil, fmt.Errorf("scanning gift: %w", err)
		}
		gifts = append(gifts, &g)
	}
	return gifts, rows.Err()
}

func (d *DB) DeleteClaimedGiftsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := d.conn.ExecContext(ctx, `
		DELETE FROM gifts WHERE claimed = TRUE AND claimed_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting claimed gifts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
