package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// State of the reconciliation machine.
type State int

const (
	Disconnected State = iota
	Subscribing
	Realtime
	Polling
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Realtime:
		return "realtime"
	case Polling:
		return "polling"
	default:
		return "disconnected"
	}
}

// DefaultPollInterval paces the listMembers fallback loop.
const DefaultPollInterval = 30 * time.Second

// ErrTransportUnavailable marks a transport that is not configured at all.
var ErrTransportUnavailable = errors.New("reconcile: push transport unavailable")

// Subscription is a live push-channel subscription. Updates delivers the
// initial Snapshot followed by deltas; the channel closes when the
// subscription dies.
type Subscription interface {
	Updates() <-chan Update
	Close()
}

// Transport is the client side of the push channel bridge. Implementations
// perform the authorization handshake inside Subscribe; the machine does not
// assume it succeeds.
type Transport interface {
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}

// MemberLister is the polling source of truth: the lifecycle API's
// listMembers operation.
type MemberLister interface {
	ListMembers(ctx context.Context, roomID string) ([]presence.Member, error)
}

// ListerFunc adapts a function to MemberLister.
type ListerFunc func(ctx context.Context, roomID string) ([]presence.Member, error)

func (f ListerFunc) ListMembers(ctx context.Context, roomID string) ([]presence.Member, error) {
	return f(ctx, roomID)
}

// Machine owns the canonical client-side view of "who is here now" for one
// room. It consumes push events while they flow and falls back to polling the
// lifecycle API when the transport is unavailable or errors. Once fallen back
// it stays in Polling for the remainder of the room visit; chasing
// reconnection invites flapping and the poll view is correct within one
// interval anyway.
//
// One Machine instance per room per client. The member map is exclusively
// owned by the machine; observers read copies.
type Machine struct {
	roomID       string
	transport    Transport
	lister       MemberLister
	pollInterval time.Duration
	onEvent      func(Event)

	mu      sync.Mutex
	state   State
	members map[string]presence.Member
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes a Machine.
type Option func(*Machine)

// WithPollInterval overrides the fallback poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithObserver registers a callback for discrete events. It is invoked from
// the machine's own goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(m *Machine) {
		if fn != nil {
			m.onEvent = fn
		}
	}
}

// NewMachine builds a machine for roomID. transport may be nil, in which case
// every Start goes straight to Polling.
func NewMachine(roomID string, transport Transport, lister MemberLister, opts ...Option) *Machine {
	m := &Machine{
		roomID:       roomID,
		transport:    transport,
		lister:       lister,
		pollInterval: DefaultPollInterval,
		onEvent:      func(Event) {},
		state:        Disconnected,
		members:      make(map[string]presence.Member),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Mode reports which data source currently feeds the view: "realtime",
// "polling", or "" outside the steady states.
func (m *Machine) Mode() string {
	switch m.State() {
	case Realtime:
		return "realtime"
	case Polling:
		return "polling"
	default:
		return ""
	}
}

// Members returns a copy of the current member view.
func (m *Machine) Members() map[string]presence.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := make(map[string]presence.Member, len(m.members))
	for id, member := range m.members {
		view[id] = member
	}
	return view
}

// Start begins tracking: Disconnected -> Subscribing. No-op in any other state.
func (m *Machine) Start(ctx context.Context) {
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.state = Subscribing
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.run(runCtx)
	}()
}

// Stop tears the machine down: any state -> Disconnected. It cancels the poll
// timer, closes the subscription, clears the view, and is safe to call twice.
func (m *Machine) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	m.mu.Lock()
	m.state = Disconnected
	m.members = make(map[string]presence.Member)
	m.mu.Unlock()
}

func (m *Machine) run(ctx context.Context) {
	if m.transport == nil {
		m.fallback(ctx, ErrTransportUnavailable)
		return
	}

	sub, err := m.transport.Subscribe(ctx, m.roomID)
	if err != nil {
		m.onEvent(Event{Type: EventSubscriptionError, Err: err})
		m.fallback(ctx, err)
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-sub.Updates():
			if !ok {
				// Dead subscription without an explicit error frame.
				m.onEvent(Event{Type: EventSubscriptionError, Err: ErrTransportUnavailable})
				m.fallback(ctx, ErrTransportUnavailable)
				return
			}
			if terr, failed := update.(TransportError); failed {
				m.onEvent(Event{Type: EventSubscriptionError, Err: terr.Err})
				m.fallback(ctx, terr.Err)
				return
			}
			m.apply(update)
		}
	}
}

// apply is the single reducer for push updates.
func (m *Machine) apply(update Update) {
	switch u := update.(type) {
	case Snapshot:
		view := make(map[string]presence.Member, len(u.Members))
		for id, member := range u.Members {
			view[id] = member
		}
		m.mu.Lock()
		m.state = Realtime
		m.members = view
		m.mu.Unlock()
		m.onEvent(Event{Type: EventSubscriptionSucceeded})

	case MemberAdded:
		m.mu.Lock()
		m.members[u.Member.UserID] = u.Member
		m.mu.Unlock()
		member := u.Member
		m.onEvent(Event{Type: EventMemberAdded, UserID: member.UserID, Member: &member})
		if member.IsAuthor {
			m.onEvent(Event{Type: EventAuthorJoined, UserID: member.UserID})
		}

	case MemberRemoved:
		m.mu.Lock()
		removed, known := m.members[u.UserID]
		delete(m.members, u.UserID)
		m.mu.Unlock()
		m.onEvent(Event{Type: EventMemberRemoved, UserID: u.UserID})
		if known && removed.IsAuthor {
			m.onEvent(Event{Type: EventAuthorLeft, UserID: u.UserID})
		}

	case AuthorBroadcast:
		// Authorship changed without a connect/disconnect; relay only.
		m.onEvent(Event{Type: EventAuthorJoined, UserID: u.AuthorID})
	}
}

// fallback enters Polling: seed the view with one immediate listMembers call,
// then re-fetch on every tick. There is no route back to Realtime within a
// session.
func (m *Machine) fallback(ctx context.Context, cause error) {
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	m.state = Polling
	m.mu.Unlock()
	m.onEvent(Event{Type: EventPollingFallback, Err: cause})

	m.poll(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll wholesale-replaces the view with the registry's ground truth, diffing
// against the previous view so author transitions still surface while polling.
// Errors are swallowed; the next tick retries.
func (m *Machine) poll(ctx context.Context) {
	members, err := m.lister.ListMembers(ctx, m.roomID)
	if err != nil {
		return
	}

	view := make(map[string]presence.Member, len(members))
	for _, member := range members {
		view[member.UserID] = member
	}

	m.mu.Lock()
	previous := m.members
	m.members = view
	m.mu.Unlock()

	for id, member := range view {
		if _, ok := previous[id]; ok {
			continue
		}
		added := member
		m.onEvent(Event{Type: EventMemberAdded, UserID: id, Member: &added})
		if member.IsAuthor {
			m.onEvent(Event{Type: EventAuthorJoined, UserID: id})
		}
	}
	for id, member := range previous {
		if _, ok := view[id]; ok {
			continue
		}
		m.onEvent(Event{Type: EventMemberRemoved, UserID: id})
		if member.IsAuthor {
			m.onEvent(Event{Type: EventAuthorLeft, UserID: id})
		}
	}

	m.onEvent(Event{Type: EventPollUpdate})
}
