package usecase

import (
	"context"
	"fmt"

	identity "github.com/videv93/book-circle-sub001/internal/identity/port"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// AuthorizeChannelInput is a client's request to subscribe a socket to a channel.
type AuthorizeChannelInput struct {
	UserID   string
	SocketID string
	Channel  string
}

// AuthorizeChannelResult carries the opaque grant the client hands to the hub,
// plus the metadata attached for presence channels.
type AuthorizeChannelResult struct {
	Token  string
	Member *presence.Member
}

// AuthorizeChannelUseCase is the channel authorization gate. Private channels
// are only joinable by their addressee; presence channels are open to any
// authenticated user and carry {name, avatar, isAuthor} join metadata. The
// author flag is best-effort: a claim-store error yields isAuthor=false, never
// a denial, because room availability is not negotiable while the badge is.
type AuthorizeChannelUseCase struct {
	Claims   repository.ClaimRepository
	Identity identity.Provider
	Signer   *channeltoken.Signer
}

func NewAuthorizeChannelUseCase(claims repository.ClaimRepository, ident identity.Provider, signer *channeltoken.Signer) *AuthorizeChannelUseCase {
	return &AuthorizeChannelUseCase{Claims: claims, Identity: ident, Signer: signer}
}

func (uc *AuthorizeChannelUseCase) Execute(ctx context.Context, in AuthorizeChannelInput) (*AuthorizeChannelResult, error) {
	if in.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if in.SocketID == "" || in.Channel == "" {
		return nil, fmt.Errorf("socket_id and channel_name are required")
	}

	kind, subject := presence.ParseChannel(in.Channel)
	switch kind {
	case presence.ChannelPrivateUser:
		if subject != in.UserID {
			return nil, ErrForbidden
		}
		token, err := uc.Signer.Sign(in.SocketID, in.Channel, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return &AuthorizeChannelResult{Token: token}, nil

	case presence.ChannelPresenceRoom:
		profile, err := uc.Identity.Resolve(ctx, in.UserID)
		if err != nil {
			if err == identity.ErrUnknownIdentity {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		isAuthor, err := uc.Claims.HasApprovedClaim(ctx, in.UserID, subject)
		if err != nil {
			isAuthor = false
		}

		member := &presence.Member{
			UserID:    in.UserID,
			Name:      profile.DisplayName,
			AvatarURL: profile.AvatarURL,
			IsAuthor:  isAuthor,
		}
		token, err := uc.Signer.Sign(in.SocketID, in.Channel, member)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return &AuthorizeChannelResult{Token: token, Member: member}, nil

	default:
		return nil, ErrForbidden
	}
}
