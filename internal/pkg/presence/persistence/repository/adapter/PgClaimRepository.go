package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// PgClaimRepository reads approved authorship claims from presence.author_claim.
// Claims are written by the verification workflow elsewhere; this adapter never
// mutates them.
type PgClaimRepository struct {
	pool *pgxpool.Pool
}

func NewPgClaimRepository(pool *pgxpool.Pool) *PgClaimRepository {
	return &PgClaimRepository{pool: pool}
}

func (r *PgClaimRepository) HasApprovedClaim(ctx context.Context, userID, roomID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgClaimRepository: nil pool")
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM presence.author_claim
			WHERE user_id = $1::uuid AND room_id = $2::uuid AND status = 'approved'
		)
	`, userID, roomID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgClaimRepository) ApprovedClaimant(ctx context.Context, roomID string) (*presence.AuthorClaim, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgClaimRepository: nil pool")
	}
	var claim presence.AuthorClaim
	err := r.pool.QueryRow(ctx, `
		SELECT c.user_id::text, c.room_id::text, COALESCE(u.display_name, '')
		FROM presence.author_claim c
		LEFT JOIN account.app_user u ON u.id = c.user_id
		WHERE c.room_id = $1::uuid AND c.status = 'approved'
		ORDER BY c.approved_at DESC
		LIMIT 1
	`, roomID).Scan(&claim.UserID, &claim.RoomID, &claim.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}
