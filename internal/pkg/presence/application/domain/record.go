package presence

import (
	"errors"
	"time"
)

// Domain-level errors for presence behaviors
var (
	ErrMissingIdentifier = errors.New("presence: userId and roomId are required")
	ErrRecordClosed      = errors.New("presence: record is already closed")
	ErrBackdatedActivity = errors.New("presence: activity timestamp precedes join time")
)

// PresenceRecord is one occupancy session of a user inside a room (room == book).
//
// Invariants enforced here:
//   - LastActiveAt never precedes JoinedAt
//   - LeftAt is set at most once; a closed record is immutable
//
// The at-most-one-open-record-per-(user, room) invariant spans rows and is the
// repository's responsibility (join closes any prior open record first).
type PresenceRecord struct {
	ID           string
	UserID       string
	RoomID       string
	IsAuthor     bool // snapshotted at join time from the authorship-claim store
	JoinedAt     time.Time
	LastActiveAt time.Time
	LeftAt       *time.Time
}

// NewPresenceRecord builds an open record starting at now.
func NewPresenceRecord(userID, roomID string, isAuthor bool, now time.Time) (*PresenceRecord, error) {
	if userID == "" || roomID == "" {
		return nil, ErrMissingIdentifier
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ts := now.UTC()
	return &PresenceRecord{
		UserID:       userID,
		RoomID:       roomID,
		IsAuthor:     isAuthor,
		JoinedAt:     ts,
		LastActiveAt: ts,
	}, nil
}

// IsOpen tells whether the session has not been closed yet.
func (r *PresenceRecord) IsOpen() bool {
	return r != nil && r.LeftAt == nil
}

// PresentAt applies the read-time staleness rule: an open record whose last
// heartbeat is older than the window counts as absent even before the reaper
// closes it.
func (r *PresenceRecord) PresentAt(now time.Time, staleWindow time.Duration) bool {
	if !r.IsOpen() {
		return false
	}
	return now.Sub(r.LastActiveAt) <= staleWindow
}

// Touch records a heartbeat. Closed records reject it; activity can never move
// behind the join time.
func (r *PresenceRecord) Touch(now time.Time) error {
	if !r.IsOpen() {
		return ErrRecordClosed
	}
	ts := now.UTC()
	if ts.Before(r.JoinedAt) {
		return ErrBackdatedActivity
	}
	r.LastActiveAt = ts
	return nil
}

// Close ends the session. Closing an already-closed record is an error at the
// domain level; callers that want idempotent leave handle the no-op above this layer.
func (r *PresenceRecord) Close(now time.Time) error {
	if !r.IsOpen() {
		return ErrRecordClosed
	}
	ts := now.UTC()
	if ts.Before(r.LastActiveAt) {
		ts = r.LastActiveAt
	}
	r.LeftAt = &ts
	return nil
}

// LastSeen is the moment the user was last known present: LeftAt for a closed
// session, the latest heartbeat otherwise.
func (r *PresenceRecord) LastSeen() time.Time {
	if r.LeftAt != nil {
		return *r.LeftAt
	}
	return r.LastActiveAt
}
