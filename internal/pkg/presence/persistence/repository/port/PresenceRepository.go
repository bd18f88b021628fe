package repository

import (
	"context"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// PresenceRepository defines persistence operations for the presence registry.
// Each (userId, roomId) pair is an independent unit of contention; operations on
// different pairs never block each other.
type PresenceRepository interface {
	// Open closes any existing open record for (userId, roomId) and creates a new
	// open one in a single transaction, returning the new record id. This is the
	// only way records are created, which keeps the at-most-one-open invariant.
	Open(ctx context.Context, rec presence.PresenceRecord) (string, error)

	// Touch bumps last_active_at on the open record for the pair. Returns false
	// (not an error) when no open record exists.
	Touch(ctx context.Context, userID, roomID string, at time.Time) (bool, error)

	// CloseOpen sets left_at on the open record for the pair. No-op (nil error)
	// when no open record exists.
	CloseOpen(ctx context.Context, userID, roomID string, at time.Time) error

	// ListPresent returns members of a room whose records are open and whose
	// last_active_at is at or after activeSince, joined with identity metadata.
	ListPresent(ctx context.Context, roomID string, activeSince time.Time) ([]presence.Member, error)

	// LatestForUser returns the user's most recent record for the room that is
	// either open or was closed at/after closedSince. Nil when none qualifies.
	LatestForUser(ctx context.Context, userID, roomID string, closedSince time.Time) (*presence.PresenceRecord, error)

	// CloseStale closes every open record whose last_active_at is before
	// staleBefore, returning how many were closed. Used by the background reaper.
	CloseStale(ctx context.Context, staleBefore time.Time, at time.Time) (int64, error)
}
