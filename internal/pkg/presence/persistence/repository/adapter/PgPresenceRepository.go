package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// PgPresenceRepository persists occupancy records in the presence.record table.
// Records are append-only history: they are closed, never deleted.
type PgPresenceRepository struct {
	pool *pgxpool.Pool
}

func NewPgPresenceRepository(pool *pgxpool.Pool) *PgPresenceRepository {
	return &PgPresenceRepository{pool: pool}
}

func (r *PgPresenceRepository) Open(ctx context.Context, rec presence.PresenceRecord) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgPresenceRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	// Idempotent re-join: close any prior open record for the pair first so the
	// at-most-one-open invariant holds across rows.
	_, err = tx.Exec(ctx, `
		UPDATE presence.record
		SET left_at = $3
		WHERE user_id = $1::uuid AND room_id = $2::uuid AND left_at IS NULL
	`, rec.UserID, rec.RoomID, rec.JoinedAt)
	if err != nil {
		return "", err
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO presence.record (user_id, room_id, is_author, joined_at, last_active_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)
		RETURNING id::text
	`, rec.UserID, rec.RoomID, rec.IsAuthor, rec.JoinedAt, rec.LastActiveAt).Scan(&id)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgPresenceRepository) Touch(ctx context.Context, userID, roomID string, at time.Time) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgPresenceRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE presence.record
		SET last_active_at = GREATEST(joined_at, $3)
		WHERE user_id = $1::uuid AND room_id = $2::uuid AND left_at IS NULL
	`, userID, roomID, at)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PgPresenceRepository) CloseOpen(ctx context.Context, userID, roomID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	// Zero rows affected means there was nothing to close; leave is idempotent.
	_, err := r.pool.Exec(ctx, `
		UPDATE presence.record
		SET left_at = GREATEST(last_active_at, $3)
		WHERE user_id = $1::uuid AND room_id = $2::uuid AND left_at IS NULL
	`, userID, roomID, at)
	return err
}

func (r *PgPresenceRepository) ListPresent(ctx context.Context, roomID string, activeSince time.Time) ([]presence.Member, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgPresenceRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.user_id::text, COALESCE(u.display_name, ''), COALESCE(u.avatar_url, ''), p.is_author
		FROM presence.record p
		LEFT JOIN account.app_user u ON u.id = p.user_id
		WHERE p.room_id = $1::uuid
		  AND p.left_at IS NULL
		  AND p.last_active_at >= $2
		ORDER BY p.joined_at
	`, roomID, activeSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []presence.Member
	for rows.Next() {
		var m presence.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.AvatarURL, &m.IsAuthor); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return members, nil
}

func (r *PgPresenceRepository) LatestForUser(ctx context.Context, userID, roomID string, closedSince time.Time) (*presence.PresenceRecord, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgPresenceRepository: nil pool")
	}
	var (
		rec    presence.PresenceRecord
		leftAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, room_id::text, is_author, joined_at, last_active_at, left_at
		FROM presence.record
		WHERE user_id = $1::uuid AND room_id = $2::uuid
		  AND (left_at IS NULL OR left_at >= $3)
		ORDER BY joined_at DESC
		LIMIT 1
	`, userID, roomID, closedSince).Scan(
		&rec.ID, &rec.UserID, &rec.RoomID, &rec.IsAuthor, &rec.JoinedAt, &rec.LastActiveAt, &leftAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.LeftAt = leftAt
	return &rec, nil
}

func (r *PgPresenceRepository) CloseStale(ctx context.Context, staleBefore time.Time, at time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgPresenceRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE presence.record
		SET left_at = GREATEST(last_active_at, $2)
		WHERE left_at IS NULL AND last_active_at < $1
	`, staleBefore, at)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
