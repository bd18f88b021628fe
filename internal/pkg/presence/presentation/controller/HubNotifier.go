package controller

import (
	"encoding/json"

	"github.com/videv93/book-circle-sub001/internal/infrastructure/realtime"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/usecase"
)

// HubNotifier publishes lifecycle-API membership changes onto the push bridge.
// Everything here is fire-and-forget: a join or leave must succeed whether or
// not anyone is subscribed.
type HubNotifier struct {
	hub *realtime.Hub
}

func NewHubNotifier(hub *realtime.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

var _ usecase.RoomNotifier = (*HubNotifier)(nil)

func (n *HubNotifier) MemberJoined(roomID string, member presence.Member) {
	if n == nil || n.hub == nil {
		return
	}
	meta, err := json.Marshal(member)
	if err != nil {
		return
	}
	channel := presence.PresenceChannel(roomID)
	n.hub.Broadcast(channel, mustFrame(channelFrame{
		Type:    "member_added",
		Channel: channel,
		Member:  meta,
	}), member.UserID)
}

func (n *HubNotifier) MemberLeft(roomID string, userID string) {
	if n == nil || n.hub == nil {
		return
	}
	channel := presence.PresenceChannel(roomID)
	n.hub.Broadcast(channel, mustFrame(channelFrame{
		Type:    "member_removed",
		Channel: channel,
		UserID:  userID,
	}), userID)
}

func (n *HubNotifier) AuthorJoined(roomID string, authorID string) {
	if n == nil || n.hub == nil {
		return
	}
	channel := presence.PresenceChannel(roomID)
	n.hub.Broadcast(channel, mustFrame(channelFrame{
		Type:     "author_joined",
		Channel:  channel,
		AuthorID: authorID,
	}), "")
}
