package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yasirimran733/campus-connect/internal/repository/port"
)

// PgUserDirectory reads identities and item ownership from the application's
// existing users/items tables. Both are owned and written by other parts of
// the system; the chat service only looks them up.
type PgUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPgUserDirectory(pool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{pool: pool}
}

var (
	_ port.UserDirectory = (*PgUserDirectory)(nil)
	_ port.ItemDirectory = (*PgUserDirectory)(nil)
)

func (r *PgUserDirectory) FindByID(ctx context.Context, id string) (*port.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserDirectory: nil pool")
	}
	var u port.User
	err := r.pool.QueryRow(ctx,
		"SELECT id::text, username FROM users WHERE id = $1::uuid",
		id,
	).Scan(&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserDirectory) GetItemOwner(ctx context.Context, itemID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgUserDirectory: nil pool")
	}
	var ownerID string
	err := r.pool.QueryRow(ctx,
		"SELECT user_id::text FROM items WHERE id = $1::uuid",
		itemID,
	).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", port.ErrItemNotFound
	}
	if err != nil {
		return "", err
	}
	return ownerID, nil
}
