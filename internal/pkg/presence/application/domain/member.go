package presence

import "time"

// Member is the per-user metadata attached to room membership, both in
// listMembers responses and in presence-channel snapshots/deltas.
type Member struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsAuthor  bool   `json:"is_author"`
}

// AuthorClaim is an approved association between a user and the subject of a
// room, established by an out-of-scope verification workflow. Read-only here.
type AuthorClaim struct {
	UserID      string
	RoomID      string
	DisplayName string
}

// AuthorDisplayNameFallback is used when the claimant has no stored name.
const AuthorDisplayNameFallback = "Author"

// AuthorPresence answers "is the verified author here now, or when were they
// last here". A nil *AuthorPresence means "no author data" (not an error).
type AuthorPresence struct {
	AuthorID           string    `json:"author_id"`
	AuthorName         string    `json:"author_name"`
	IsCurrentlyPresent bool      `json:"is_currently_present"`
	LastSeenAt         time.Time `json:"last_seen_at"`
}
