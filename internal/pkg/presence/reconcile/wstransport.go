package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// Authorizer obtains a channel grant for a connected socket, typically by
// calling the channel authorization endpoint.
type Authorizer interface {
	Authorize(ctx context.Context, socketID, channel string) (token string, err error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, socketID, channel string) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, socketID, channel string) (string, error) {
	return f(ctx, socketID, channel)
}

const handshakeTimeout = 10 * time.Second

// wireFrame mirrors the hub's websocket frames.
type wireFrame struct {
	Type     string                     `json:"type"`
	Channel  string                     `json:"channel,omitempty"`
	SocketID string                     `json:"socket_id,omitempty"`
	Token    string                     `json:"token,omitempty"`
	Members  map[string]presence.Member `json:"members,omitempty"`
	Member   *presence.Member           `json:"member,omitempty"`
	UserID   string                     `json:"user_id,omitempty"`
	AuthorID string                     `json:"author_id,omitempty"`
	Code     string                     `json:"code,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

// WSTransport is the gorilla/websocket client of the push channel bridge.
// Subscribe performs the full handshake: dial, learn the socket id, fetch a
// channel grant from the Authorizer, subscribe, and wait for the snapshot.
type WSTransport struct {
	url        string
	authorizer Authorizer
	dialer     *websocket.Dialer
}

func NewWSTransport(url string, authorizer Authorizer) *WSTransport {
	return &WSTransport{
		url:        url,
		authorizer: authorizer,
		dialer:     websocket.DefaultDialer,
	}
}

var _ Transport = (*WSTransport)(nil)

func (t *WSTransport) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	if t == nil || t.url == "" {
		return nil, ErrTransportUnavailable
	}
	channel := presence.PresenceChannel(roomID)

	ws, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("reconcile: dial: %w", err)
	}

	fail := func(err error) (Subscription, error) {
		_ = ws.Close()
		return nil, err
	}

	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))

	// The hub greets with a connected frame carrying the socket id the
	// authorization endpoint binds the grant to.
	var hello wireFrame
	if err := ws.ReadJSON(&hello); err != nil {
		return fail(fmt.Errorf("reconcile: handshake read: %w", err))
	}
	if hello.Type != "connected" || hello.SocketID == "" {
		return fail(errors.New("reconcile: unexpected handshake frame"))
	}

	token, err := t.authorizer.Authorize(ctx, hello.SocketID, channel)
	if err != nil {
		return fail(fmt.Errorf("reconcile: authorize: %w", err))
	}

	if err := ws.WriteJSON(wireFrame{Type: "subscribe", Channel: channel, Token: token}); err != nil {
		return fail(fmt.Errorf("reconcile: subscribe write: %w", err))
	}

	// Wait for the snapshot (or a rejection) before handing the subscription over.
	for {
		var frame wireFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return fail(fmt.Errorf("reconcile: subscribe read: %w", err))
		}
		switch frame.Type {
		case "subscription_succeeded":
			if frame.Channel != channel {
				continue
			}
			sub := newWSSubscription(ws, channel)
			sub.updates <- Snapshot{Members: frame.Members}
			go sub.readLoop()
			return sub, nil
		case "error":
			return fail(fmt.Errorf("reconcile: subscription rejected: %s", frame.Code))
		default:
			// Frames for other channels on a shared socket; skip.
		}
	}
}

type wsSubscription struct {
	ws      *websocket.Conn
	channel string
	updates chan Update
	closed  chan struct{}
}

func newWSSubscription(ws *websocket.Conn, channel string) *wsSubscription {
	return &wsSubscription{
		ws:      ws,
		channel: channel,
		updates: make(chan Update, 16),
		closed:  make(chan struct{}),
	}
}

func (s *wsSubscription) Updates() <-chan Update { return s.updates }

func (s *wsSubscription) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
		_ = s.ws.WriteJSON(wireFrame{Type: "unsubscribe", Channel: s.channel})
		_ = s.ws.Close()
	}
}

func (s *wsSubscription) readLoop() {
	defer close(s.updates)
	_ = s.ws.SetReadDeadline(time.Time{})

	for {
		var frame wireFrame
		if err := s.ws.ReadJSON(&frame); err != nil {
			select {
			case <-s.closed: // deliberate teardown, not a transport failure
			default:
				s.push(TransportError{Err: err})
			}
			return
		}
		if frame.Channel != s.channel {
			continue
		}

		switch frame.Type {
		case "member_added":
			if frame.Member != nil {
				s.push(MemberAdded{Member: *frame.Member})
			}
		case "member_removed":
			s.push(MemberRemoved{UserID: frame.UserID})
		case "author_joined":
			s.push(AuthorBroadcast{AuthorID: frame.AuthorID})
		case "error":
			s.push(TransportError{Err: errors.New(frame.Code)})
			return
		}
	}
}

// push drops updates once the consumer is gone instead of blocking the read loop.
func (s *wsSubscription) push(u Update) {
	select {
	case s.updates <- u:
	case <-s.closed:
	}
}
