package presence

import "strings"

// Channel classes on the push bridge. A presence channel's subscribers are
// visible to each other; a private channel is visible only to its addressee.
const (
	presenceChannelPrefix = "presence-room-"
	privateChannelPrefix  = "private-user-"
)

type ChannelKind int

const (
	ChannelUnknown ChannelKind = iota
	ChannelPresenceRoom
	ChannelPrivateUser
)

// PresenceChannel is the push channel name for a room.
func PresenceChannel(roomID string) string {
	return presenceChannelPrefix + roomID
}

// PrivateChannel is the per-user channel name for direct notifications.
func PrivateChannel(userID string) string {
	return privateChannelPrefix + userID
}

// ParseChannel classifies a channel name and extracts its subject id.
// Names matching neither class come back as ChannelUnknown.
func ParseChannel(name string) (ChannelKind, string) {
	switch {
	case strings.HasPrefix(name, presenceChannelPrefix):
		if id := name[len(presenceChannelPrefix):]; id != "" {
			return ChannelPresenceRoom, id
		}
	case strings.HasPrefix(name, privateChannelPrefix):
		if id := name[len(privateChannelPrefix):]; id != "" {
			return ChannelPrivateUser, id
		}
	}
	return ChannelUnknown, ""
}
