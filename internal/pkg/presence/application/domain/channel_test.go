package presence

import "testing"

func TestParseChannel(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		kind    ChannelKind
		subject string
	}{
		{"presence room", "presence-room-book-1", ChannelPresenceRoom, "book-1"},
		{"private user", "private-user-u42", ChannelPrivateUser, "u42"},
		{"empty subject", "presence-room-", ChannelUnknown, ""},
		{"empty private subject", "private-user-", ChannelUnknown, ""},
		{"unrelated name", "chat-room-1", ChannelUnknown, ""},
		{"empty string", "", ChannelUnknown, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, subject := ParseChannel(tc.input)
			if kind != tc.kind || subject != tc.subject {
				t.Errorf("ParseChannel(%q) = (%v, %q), want (%v, %q)", tc.input, kind, subject, tc.kind, tc.subject)
			}
		})
	}
}

func TestChannelRoundTrip(t *testing.T) {
	if kind, id := ParseChannel(PresenceChannel("book-9")); kind != ChannelPresenceRoom || id != "book-9" {
		t.Errorf("presence round trip failed: (%v, %q)", kind, id)
	}
	if kind, id := ParseChannel(PrivateChannel("u7")); kind != ChannelPrivateUser || id != "u7" {
		t.Errorf("private round trip failed: (%v, %q)", kind, id)
	}
}
