package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (d *DB) UpsertPlayer(ctx context.Context, id, name string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO players (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = CASE WHEN $2 <> '' THEN $2 ELSE players.name END
	`, id, name)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

func (d *DB) GetPlayer(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, name, connected, last_seen FROM players WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Connected, &p.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

func (d *DB) SetConnected(ctx context.Context, id string, connected bool) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO players (id, connected, last_seen)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET connected = $2, last_seen = now()
	`, id, connected)
	if err != nil {
		return fmt.Errorf("setting connected status: %w", err)
	}
	return nil
}
