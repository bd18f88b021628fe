package reconcile

import (
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// The two sources that can feed the member view are modeled as one tagged
// union consumed by a single reducer. Push deltas and poll snapshots never
// race: polling only runs in the Polling state, which is mutually exclusive
// with Realtime.

// Update is an incoming message for the reconciliation reducer.
type Update interface{ isUpdate() }

// Snapshot is the authoritative full member map delivered on subscription
// success. It replaces the local view, never merges into it.
type Snapshot struct {
	Members map[string]presence.Member
}

// MemberAdded is an incremental push delta: a user entered the room channel.
type MemberAdded struct {
	Member presence.Member
}

// MemberRemoved is an incremental push delta: a user left the room channel.
type MemberRemoved struct {
	UserID string
}

// AuthorBroadcast is the explicit application-level "author joined" signal,
// independent of membership deltas. Relayed to observers without touching the
// member map.
type AuthorBroadcast struct {
	AuthorID string
}

// TransportError reports a subscription failure after the handshake succeeded.
type TransportError struct {
	Err error
}

func (Snapshot) isUpdate()        {}
func (MemberAdded) isUpdate()     {}
func (MemberRemoved) isUpdate()   {}
func (AuthorBroadcast) isUpdate() {}
func (TransportError) isUpdate()  {}

// EventType names the discrete events the machine surfaces for UI/telemetry.
// None of them are required for correctness of the member map, which is
// independently queryable at any time.
type EventType string

const (
	EventSubscriptionSucceeded EventType = "subscription_succeeded"
	EventMemberAdded           EventType = "member_added"
	EventMemberRemoved         EventType = "member_removed"
	EventAuthorJoined          EventType = "author_joined"
	EventAuthorLeft            EventType = "author_left"
	EventPollingFallback       EventType = "polling_fallback"
	EventPollUpdate            EventType = "poll_update"
	EventSubscriptionError     EventType = "subscription_error"
)

// Event is one observable machine occurrence.
type Event struct {
	Type   EventType
	UserID string           // affected member or author id, when applicable
	Member *presence.Member // populated for member_added
	Err    error            // populated for subscription_error
}
