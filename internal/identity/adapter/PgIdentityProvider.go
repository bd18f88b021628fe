package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videv93/book-circle-sub001/internal/identity/port"
)

// PgIdentityProvider resolves user profiles from the account schema.
type PgIdentityProvider struct {
	pool *pgxpool.Pool
}

func NewPgIdentityProvider(pool *pgxpool.Pool) *PgIdentityProvider {
	return &PgIdentityProvider{pool: pool}
}

var _ port.Provider = (*PgIdentityProvider)(nil)

func (p *PgIdentityProvider) Resolve(ctx context.Context, userID string) (*port.Profile, error) {
	if p == nil || p.pool == nil {
		return nil, errors.New("PgIdentityProvider: nil pool")
	}
	if userID == "" {
		return nil, port.ErrUnknownIdentity
	}
	var profile port.Profile
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, COALESCE(display_name, ''), COALESCE(avatar_url, '')
		FROM account.app_user
		WHERE id = $1::uuid
	`, userID).Scan(&profile.UserID, &profile.DisplayName, &profile.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrUnknownIdentity
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
