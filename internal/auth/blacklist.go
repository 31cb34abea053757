package auth

import (
	"context"
	"database/sql"
	"time"
)

// Blacklist is the revoked-token ledger. Insert must be idempotent: logout and
// the forced-logout path can race on the same token.
type Blacklist interface {
	Insert(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

type BlacklistStore struct {
	db *sql.DB
}

func NewBlacklistStore(db *sql.DB) *BlacklistStore {
	return &BlacklistStore{db: db}
}

func (s *BlacklistStore) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	const q = `
		INSERT INTO blacklisted_tokens (token, expires_at, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, q, token, expiresAt)
	return err
}

func (s *BlacklistStore) Contains(ctx context.Context, token string) (bool, error) {
	const q = `SELECT 1 FROM blacklisted_tokens WHERE token = $1`
	var one int
	err := s.db.QueryRowContext(ctx, q, token).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteExpired prunes ledger rows whose token expiry has passed; an expired
// token fails signature verification anyway.
func (s *BlacklistStore) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM blacklisted_tokens WHERE expires_at < now()`
	res, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
