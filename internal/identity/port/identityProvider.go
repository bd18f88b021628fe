package port

import (
	"context"
	"errors"
)

// ErrUnknownIdentity signals that the caller could not be resolved to a user.
// Failure to resolve identity is always "unauthenticated", never a silent default.
var ErrUnknownIdentity = errors.New("identity: unknown user")

// Profile is the identity metadata attached to presence records and channel joins.
type Profile struct {
	UserID      string
	DisplayName string
	AvatarURL   string
}

// Provider resolves a user id to its profile.
type Provider interface {
	Resolve(ctx context.Context, userID string) (*Profile, error)
}
