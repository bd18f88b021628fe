package repository

import (
	"context"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// ClaimRepository reads approved authorship claims. The verification workflow
// that creates claims lives outside this service; this port is read-only.
type ClaimRepository interface {
	// HasApprovedClaim tells whether userID holds an approved claim on the
	// room's subject.
	HasApprovedClaim(ctx context.Context, userID, roomID string) (bool, error)

	// ApprovedClaimant returns the approved claimant for the room's subject,
	// with display name when known. Nil when the room has no approved claim.
	ApprovedClaimant(ctx context.Context, roomID string) (*presence.AuthorClaim, error)
}
