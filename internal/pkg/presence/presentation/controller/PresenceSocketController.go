package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/videv93/book-circle-sub001/internal/infrastructure/realtime"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
)

// PresenceSocketController is the websocket endpoint of the push channel
// bridge. Clients subscribe to channels with grants minted by the channel
// authorization endpoint; the controller validates grants, relays snapshots,
// and broadcasts member deltas.
type PresenceSocketController struct {
	hub    *realtime.Hub
	signer *channeltoken.Signer
}

func NewPresenceSocketController(hub *realtime.Hub, signer *channeltoken.Signer) *PresenceSocketController {
	return &PresenceSocketController{hub: hub, signer: signer}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until the
// client disconnects.
func (ctl *PresenceSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.broadcastRemovals(ctl.hub.Attach(conn))
		defer func() {
			ctl.broadcastRemovals(ctl.hub.Detach(conn))
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		// The connection id doubles as the socket id grants are bound to.
		_ = conn.Send(mustFrame(channelFrame{Type: "connected", SocketID: conn.ID}))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame channelFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "", "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "subscribe":
				ctl.handleSubscribe(conn, frame)
			case "unsubscribe":
				ctl.handleUnsubscribe(conn, frame)
			default:
				ctl.replyError(conn, frame.Channel, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *PresenceSocketController) handleSubscribe(conn *realtime.Connection, frame channelFrame) {
	if frame.Channel == "" || frame.Token == "" {
		ctl.replyError(conn, frame.Channel, "bad_request", "channel and token are required")
		return
	}

	claims, err := ctl.signer.Verify(frame.Token, conn.ID, frame.Channel)
	if err != nil {
		code := "invalid_token"
		if errors.Is(err, channeltoken.ErrTokenMismatch) {
			code = "token_mismatch"
		}
		ctl.replyError(conn, frame.Channel, code, "channel grant rejected")
		return
	}

	kind, _ := presence.ParseChannel(frame.Channel)
	switch kind {
	case presence.ChannelPrivateUser:
		// Private channels have a single addressee; no membership to track.
		_ = conn.Send(mustFrame(channelFrame{Type: "subscription_succeeded", Channel: frame.Channel}))

	case presence.ChannelPresenceRoom:
		meta, err := json.Marshal(claims.Member)
		if err != nil || claims.Member == nil {
			ctl.replyError(conn, frame.Channel, "bad_grant", "grant carries no member metadata")
			return
		}

		snapshot, added := ctl.hub.Subscribe(frame.Channel, conn, meta)
		if snapshot == nil {
			// The session was detached (a newer socket replaced it) while this
			// frame sat in the read queue.
			ctl.replyError(conn, frame.Channel, "gone", "session detached")
			return
		}
		snapshot[conn.UserID] = meta
		_ = conn.Send(mustFrame(channelFrame{
			Type:    "subscription_succeeded",
			Channel: frame.Channel,
			Members: snapshot,
		}))

		if added {
			ctl.hub.Broadcast(frame.Channel, mustFrame(channelFrame{
				Type:    "member_added",
				Channel: frame.Channel,
				Member:  meta,
			}), conn.UserID)
		}

	default:
		ctl.replyError(conn, frame.Channel, "forbidden", "unknown channel class")
	}
}

func (ctl *PresenceSocketController) handleUnsubscribe(conn *realtime.Connection, frame channelFrame) {
	if frame.Channel == "" {
		ctl.replyError(conn, "", "bad_request", "channel is required")
		return
	}
	removed, _ := ctl.hub.Unsubscribe(frame.Channel, conn)
	if removed {
		ctl.hub.Broadcast(frame.Channel, mustFrame(channelFrame{
			Type:    "member_removed",
			Channel: frame.Channel,
			UserID:  conn.UserID,
		}), conn.UserID)
	}
	_ = conn.Send(mustFrame(channelFrame{Type: "unsubscribed", Channel: frame.Channel}))
}

// broadcastRemovals announces member_removed for every channel a dead session
// vacated.
func (ctl *PresenceSocketController) broadcastRemovals(removals []realtime.Removal) {
	for _, r := range removals {
		ctl.hub.Broadcast(r.Channel, mustFrame(channelFrame{
			Type:    "member_removed",
			Channel: r.Channel,
			UserID:  r.UserID,
		}), r.UserID)
	}
}

func (ctl *PresenceSocketController) replyError(conn *realtime.Connection, channel, code, message string) {
	_ = conn.Send(mustFrame(channelFrame{
		Type:    "error",
		Channel: channel,
		Code:    code,
		Error:   message,
	}))
}
