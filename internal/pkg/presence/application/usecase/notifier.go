package usecase

import (
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// RoomNotifier publishes membership deltas on the push channel bridge.
// All notifications are best-effort: a failed or missing bridge must never fail
// the lifecycle operation that triggered it, so these methods return nothing.
type RoomNotifier interface {
	MemberJoined(roomID string, member presence.Member)
	MemberLeft(roomID string, userID string)
	AuthorJoined(roomID string, authorID string)
}

// NopNotifier is used when no push bridge is configured.
type NopNotifier struct{}

func (NopNotifier) MemberJoined(string, presence.Member) {}
func (NopNotifier) MemberLeft(string, string)            {}
func (NopNotifier) AuthorJoined(string, string)          {}
