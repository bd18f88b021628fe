package usecase

import (
	"context"
	"fmt"
	"time"

	identity "github.com/videv93/book-circle-sub001/internal/identity/port"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// JoinRoomInput carries the data needed to open an occupancy session.
type JoinRoomInput struct {
	UserID string
	RoomID string
}

// JoinRoomResult reports the new record id and the member metadata as other
// subscribers will see it.
type JoinRoomResult struct {
	RecordID string
	Member   presence.Member
}

// JoinRoomUseCase opens a presence record for (user, room). Any prior open
// record for the pair is closed first (idempotent re-join), and isAuthor is
// snapshotted from the authorship-claim store at join time.
type JoinRoomUseCase struct {
	Repo     repository.PresenceRepository
	Claims   repository.ClaimRepository
	Identity identity.Provider
	Notifier RoomNotifier
	Now      func() time.Time
}

func NewJoinRoomUseCase(repo repository.PresenceRepository, claims repository.ClaimRepository, ident identity.Provider, notifier RoomNotifier) *JoinRoomUseCase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &JoinRoomUseCase{
		Repo:     repo,
		Claims:   claims,
		Identity: ident,
		Notifier: notifier,
		Now:      time.Now,
	}
}

func (uc *JoinRoomUseCase) Execute(ctx context.Context, in JoinRoomInput) (*JoinRoomResult, error) {
	if in.UserID == "" || in.RoomID == "" {
		return nil, presence.ErrMissingIdentifier
	}

	profile, err := uc.Identity.Resolve(ctx, in.UserID)
	if err != nil {
		if err == identity.ErrUnknownIdentity {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The author badge is best-effort: a claim-store failure downgrades to
	// isAuthor=false rather than failing the join.
	isAuthor, err := uc.Claims.HasApprovedClaim(ctx, in.UserID, in.RoomID)
	if err != nil {
		isAuthor = false
	}

	rec, err := presence.NewPresenceRecord(in.UserID, in.RoomID, isAuthor, uc.Now())
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.Open(ctx, *rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	member := presence.Member{
		UserID:    in.UserID,
		Name:      profile.DisplayName,
		AvatarURL: profile.AvatarURL,
		IsAuthor:  isAuthor,
	}

	// Best-effort bridge notifications; never part of the join's success.
	uc.Notifier.MemberJoined(in.RoomID, member)
	if isAuthor {
		uc.Notifier.AuthorJoined(in.RoomID, in.UserID)
	}

	return &JoinRoomResult{RecordID: id, Member: member}, nil
}
