package controller

import "encoding/json"

// channelFrame is the wire format for every hub frame, inbound and outbound.
// Member metadata stays as raw JSON: the hub stores whatever the authorization
// gate signed, and the controller never needs to look inside it.
type channelFrame struct {
	Type     string                     `json:"type"`
	Channel  string                     `json:"channel,omitempty"`
	SocketID string                     `json:"socket_id,omitempty"`
	Token    string                     `json:"token,omitempty"`
	Members  map[string]json.RawMessage `json:"members,omitempty"`
	Member   json.RawMessage            `json:"member,omitempty"`
	UserID   string                     `json:"user_id,omitempty"`
	AuthorID string                     `json:"author_id,omitempty"`
	Code     string                     `json:"code,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

func mustFrame(f channelFrame) []byte {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	return payload
}
