package usecase

import (
	"context"
	"fmt"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// HeartbeatInput identifies the open session to keep alive.
type HeartbeatInput struct {
	UserID string
	RoomID string
}

// HeartbeatUseCase bumps last_active_at on the caller's open record. A missing
// record is reported as updated=false, not an error: the caller's local state
// may be stale (tab in the background past the staleness window) and the caller
// is expected to re-join.
type HeartbeatUseCase struct {
	Repo repository.PresenceRepository
	Now  func() time.Time
}

func NewHeartbeatUseCase(repo repository.PresenceRepository) *HeartbeatUseCase {
	return &HeartbeatUseCase{Repo: repo, Now: time.Now}
}

func (uc *HeartbeatUseCase) Execute(ctx context.Context, in HeartbeatInput) (bool, error) {
	if in.UserID == "" || in.RoomID == "" {
		return false, presence.ErrMissingIdentifier
	}
	updated, err := uc.Repo.Touch(ctx, in.UserID, in.RoomID, uc.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}
