package usecase

import (
	"context"
	"fmt"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// DefaultStaleWindow is how long an open record may go without a heartbeat
// before it reads as absent. 3x the 30s client heartbeat, within the
// recommended 60-120s band.
const DefaultStaleWindow = 90 * time.Second

// ListMembersInput wraps the room identifier to fetch its current members.
type ListMembersInput struct {
	RoomID string
}

// ListMembersUseCase returns the currently-present members of a room with
// identity metadata. "Currently present" means an open record whose last
// heartbeat is within the staleness window; silently-dead sessions read as
// absent even before the reaper closes them.
type ListMembersUseCase struct {
	Repo        repository.PresenceRepository
	StaleWindow time.Duration
	Now         func() time.Time
}

func NewListMembersUseCase(repo repository.PresenceRepository, staleWindow time.Duration) *ListMembersUseCase {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	return &ListMembersUseCase{Repo: repo, StaleWindow: staleWindow, Now: time.Now}
}

func (uc *ListMembersUseCase) Execute(ctx context.Context, in ListMembersInput) ([]presence.Member, error) {
	if in.RoomID == "" {
		return nil, presence.ErrMissingIdentifier
	}
	activeSince := uc.Now().UTC().Add(-uc.StaleWindow)
	members, err := uc.Repo.ListPresent(ctx, in.RoomID, activeSince)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if members == nil {
		members = []presence.Member{}
	}
	return members, nil
}
