package realtime

import (
	"encoding/json"
	"sync"
)

// Hub is the server side of the push channel bridge. It coordinates websocket
// sessions and named channels with presence semantics: each subscriber carries
// opaque member metadata, a subscriber receives the full member snapshot on
// subscribe, and the hub reports when a user enters or leaves a channel so the
// transport layer can broadcast member_added/member_removed deltas.
//
// One active socket per user: attaching a new session closes the previous one.
type Hub struct {
	mu              sync.RWMutex
	sessions        map[string]*Connection                // sessionID -> connection
	userSessions    map[string]string                     // userID -> sessionID
	channels        map[string]map[string]*Connection     // channel -> sessionID -> connection
	sessionChannels map[string]map[string]struct{}        // sessionID -> set of channels
	members         map[string]map[string]json.RawMessage // channel -> userID -> metadata
}

// Removal reports a user leaving a channel, with the metadata they carried.
type Removal struct {
	Channel string
	UserID  string
	Meta    json.RawMessage
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		sessions:        make(map[string]*Connection),
		userSessions:    make(map[string]string),
		channels:        make(map[string]map[string]*Connection),
		sessionChannels: make(map[string]map[string]struct{}),
		members:         make(map[string]map[string]json.RawMessage),
	}
}

// Attach registers a connection for the given user. If a previous session
// exists it is detached and closed after the swap; the returned removals are
// the channels the previous session vacated.
func (h *Hub) Attach(conn *Connection) []Removal {
	var (
		previous *Connection
		removals []Removal
	)

	h.mu.Lock()
	if existingID, ok := h.userSessions[conn.UserID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			removals = h.detachLocked(existingID)
		}
	}

	h.sessions[conn.ID] = conn
	h.userSessions[conn.UserID] = conn.ID
	h.sessionChannels[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
	return removals
}

// Detach removes a connection and returns the channels it vacated.
func (h *Hub) Detach(conn *Connection) []Removal {
	h.mu.Lock()
	removals := h.detachLocked(conn.ID)
	h.mu.Unlock()
	return removals
}

// Subscribe adds the connection to the channel carrying the given member
// metadata. The returned snapshot holds every member already in the channel
// (excluding the subscriber); added reports whether the user is newly visible,
// i.e. whether a member_added delta should be broadcast.
func (h *Hub) Subscribe(channel string, conn *Connection, meta json.RawMessage) (snapshot map[string]json.RawMessage, added bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[conn.ID]; !ok {
		return nil, false
	}

	chanMembers := h.members[channel]
	snapshot = make(map[string]json.RawMessage, len(chanMembers))
	for uid, m := range chanMembers {
		if uid == conn.UserID {
			continue
		}
		snapshot[uid] = m
	}
	_, already := chanMembers[conn.UserID]

	conns := h.channels[channel]
	if conns == nil {
		conns = make(map[string]*Connection)
		h.channels[channel] = conns
	}
	conns[conn.ID] = conn

	if chanMembers == nil {
		chanMembers = make(map[string]json.RawMessage)
		h.members[channel] = chanMembers
	}
	chanMembers[conn.UserID] = meta

	memberships := h.sessionChannels[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.sessionChannels[conn.ID] = memberships
	}
	memberships[channel] = struct{}{}

	return snapshot, !already
}

// Unsubscribe removes the connection from the channel. removed reports whether
// the user is no longer visible in the channel (member_removed should fire),
// and meta is the metadata they carried.
func (h *Hub) Unsubscribe(channel string, conn *Connection) (removed bool, meta json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(channel, conn.ID)
}

// Members returns the current metadata snapshot for a channel.
func (h *Hub) Members(channel string) map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	chanMembers := h.members[channel]
	snapshot := make(map[string]json.RawMessage, len(chanMembers))
	for uid, m := range chanMembers {
		snapshot[uid] = m
	}
	return snapshot
}

// Broadcast writes payload to every subscriber of the channel.
// excludeUserID, when non-empty, prevents delivering to that user.
func (h *Hub) Broadcast(channel string, payload []byte, excludeUserID string) int {
	h.mu.RLock()
	conns := h.channels[channel]
	if len(conns) == 0 {
		h.mu.RUnlock()
		return 0
	}

	delivered := 0
	for _, conn := range conns {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()
	return delivered
}

// NotifyUser delivers payload to the current connection of the given user.
// This is the delivery path for private-user channels: the subsystems that
// publish direct notifications (moderation, account events) live outside this
// service and call it through their own notifier, so the hub keeps the seam
// even though nothing in this binary publishes on it yet.
func (h *Hub) NotifyUser(userID string, payload []byte) bool {
	h.mu.RLock()
	sessionID, ok := h.userSessions[userID]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	conn := h.sessions[sessionID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userSessions = make(map[string]string)
	h.channels = make(map[string]map[string]*Connection)
	h.sessionChannels = make(map[string]map[string]struct{})
	h.members = make(map[string]map[string]json.RawMessage)
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) []Removal {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(h.sessions, sessionID)

	if current, ok := h.userSessions[conn.UserID]; ok && current == sessionID {
		delete(h.userSessions, conn.UserID)
	}

	var removals []Removal
	for channel := range h.sessionChannels[sessionID] {
		if removed, meta := h.leaveLocked(channel, sessionID); removed {
			removals = append(removals, Removal{Channel: channel, UserID: conn.UserID, Meta: meta})
		}
	}
	delete(h.sessionChannels, sessionID)
	return removals
}

func (h *Hub) leaveLocked(channel string, sessionID string) (bool, json.RawMessage) {
	conns := h.channels[channel]
	if conns == nil {
		return false, nil
	}
	conn, ok := conns[sessionID]
	if !ok {
		return false, nil
	}
	delete(conns, sessionID)
	if len(conns) == 0 {
		delete(h.channels, channel)
	}

	if memberships, ok := h.sessionChannels[sessionID]; ok {
		delete(memberships, channel)
	}

	// One session per user: vacating the session vacates the member.
	var meta json.RawMessage
	if chanMembers, ok := h.members[channel]; ok {
		meta = chanMembers[conn.UserID]
		delete(chanMembers, conn.UserID)
		if len(chanMembers) == 0 {
			delete(h.members, channel)
		}
	}
	return true, meta
}
