package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func (d *DB) CreateFriendRequest(ctx context.Context, requester, addressee string) (*FriendLink, error) {
	// An existing edge in either direction blocks a new request.
	var existing int
	err := d.conn.QueryRowContext(ctx, `
		SELECT count(*) FROM friend_links
		WHERE (requester = $1 AND addressee = $2) OR (requester = $2 AND addressee = $1)
	`, requester, addressee).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("checking existing friend link: %w", err)
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	link := &FriendLink{
		ID:        uuid.New().String(),
		Requester: requester,
		Addressee: addressee,
		Status:    FriendPending,
	}
	err = d.conn.QueryRowContext(ctx, `
		INSERT INTO friend_links (id, requester, addressee, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, link.ID, requester, addressee, link.Status).Scan(&link.CreatedAt)
	if isForeignKeyViolation(err) {
		// Requester or addressee has no player row.
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}
	return link, nil
}

func (d *DB) AcceptFriendRequest(ctx context.Context, requestID, addressee string) (*FriendLink, error) {
	var link FriendLink
	err := d.conn.QueryRowContext(ctx, `
		UPDATE friend_links SET status = $1
		WHERE id = $2 AND addressee = $3 AND status = $4
		RETURNING id, requester, addressee, status, created_at
	`, FriendAccepted, requestID, addressee, FriendPending).
		Scan(&link.ID, &link.Requester, &link.Addressee, &link.Status, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}
	return &link, nil
}

func (d *DB) RemoveFriend(ctx context.Context, playerID, friendID string) error {
	res, err := d.conn.ExecContext(ctx, `
		DELETE FROM friend_links
		WHERE (requester = $1 AND addressee = $2) OR (requester = $2 AND addressee = $1)
	`, playerID, friendID)
	if err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) ListFriends(ctx context.Context, playerID string) ([]*FriendLink, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, requester, addressee, status, created_at FROM friend_links
		WHERE (requester = $1 OR addressee = $1) AND status = $2
		ORDER BY created_at
	`, playerID, FriendAccepted)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()
	return scanFriendLinks(rows)
}

func (d *DB) PendingRequests(ctx context.Context, addressee string) ([]*FriendLink, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, requester, addressee, status, created_at FROM friend_links
		WHERE addressee = $1 AND status = $2
		ORDER BY created_at
	`, addressee, FriendPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()
	return scanFriendLinks(rows)
}

func scanFriendLinks(rows *sql.Rows) ([]*FriendLink, error) {
	links := make([]*FriendLink, 0)
	for rows.Next() {
		var l FriendLink
		if err := rows.Scan(&l.ID, &l.Requester, &l.Addressee, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friend link: %w", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}
