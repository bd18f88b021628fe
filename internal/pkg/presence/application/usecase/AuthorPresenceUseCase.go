package usecase

import (
	"context"
	"fmt"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// DefaultRecentWindow bounds "the author was recently here": long enough to
// survive normal session gaps, short enough to stay meaningful.
const DefaultRecentWindow = 24 * time.Hour

// AuthorPresenceInput wraps the room whose author indicator is being rendered.
type AuthorPresenceInput struct {
	RoomID string
}

// AuthorPresenceUseCase answers whether the room's verified author is present
// now or was within the recent window, independent of any live subscription.
// A nil result means "no author data" and is not an error.
type AuthorPresenceUseCase struct {
	Repo         repository.PresenceRepository
	Claims       repository.ClaimRepository
	RecentWindow time.Duration
	Now          func() time.Time
}

func NewAuthorPresenceUseCase(repo repository.PresenceRepository, claims repository.ClaimRepository, recentWindow time.Duration) *AuthorPresenceUseCase {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &AuthorPresenceUseCase{Repo: repo, Claims: claims, RecentWindow: recentWindow, Now: time.Now}
}

func (uc *AuthorPresenceUseCase) Execute(ctx context.Context, in AuthorPresenceInput) (*presence.AuthorPresence, error) {
	if in.RoomID == "" {
		return nil, presence.ErrMissingIdentifier
	}

	claim, err := uc.Claims.ApprovedClaimant(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if claim == nil {
		return nil, nil
	}

	closedSince := uc.Now().UTC().Add(-uc.RecentWindow)
	rec, err := uc.Repo.LatestForUser(ctx, claim.UserID, in.RoomID, closedSince)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if rec == nil {
		return nil, nil
	}

	name := claim.DisplayName
	if name == "" {
		name = presence.AuthorDisplayNameFallback
	}
	return &presence.AuthorPresence{
		AuthorID:           claim.UserID,
		AuthorName:         name,
		IsCurrentlyPresent: rec.IsOpen(),
		LastSeenAt:         rec.LastSeen(),
	}, nil
}
