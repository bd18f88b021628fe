package usecase

import (
	"context"
	"fmt"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// LeaveRoomInput identifies the session to close.
type LeaveRoomInput struct {
	UserID string
	RoomID string
}

// LeaveRoomUseCase closes the caller's open record if one exists. Duplicate
// leaves from flaky connections are expected, so a missing record is a no-op.
type LeaveRoomUseCase struct {
	Repo     repository.PresenceRepository
	Notifier RoomNotifier
	Now      func() time.Time
}

func NewLeaveRoomUseCase(repo repository.PresenceRepository, notifier RoomNotifier) *LeaveRoomUseCase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LeaveRoomUseCase{Repo: repo, Notifier: notifier, Now: time.Now}
}

func (uc *LeaveRoomUseCase) Execute(ctx context.Context, in LeaveRoomInput) error {
	if in.UserID == "" || in.RoomID == "" {
		return presence.ErrMissingIdentifier
	}
	if err := uc.Repo.CloseOpen(ctx, in.UserID, in.RoomID, uc.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	uc.Notifier.MemberLeft(in.RoomID, in.UserID)
	return nil
}
