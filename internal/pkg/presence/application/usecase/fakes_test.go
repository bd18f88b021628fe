package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	identity "github.com/videv93/book-circle-sub001/internal/identity/port"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

// In-memory doubles for the persistence and identity ports. They enforce the
// same invariants the Postgres adapters do (one open record per pair, clamped
// timestamps) so use case tests exercise realistic repository behavior.

type fakePresenceRepo struct {
	records  []*presence.PresenceRecord
	profiles map[string]identity.Profile
	nextID   int
	failWith error
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{profiles: map[string]identity.Profile{}}
}

func (f *fakePresenceRepo) openRecord(userID, roomID string) *presence.PresenceRecord {
	for _, r := range f.records {
		if r.UserID == userID && r.RoomID == roomID && r.IsOpen() {
			return r
		}
	}
	return nil
}

func (f *fakePresenceRepo) Open(_ context.Context, rec presence.PresenceRecord) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	if prior := f.openRecord(rec.UserID, rec.RoomID); prior != nil {
		_ = prior.Close(rec.JoinedAt)
	}
	f.nextID++
	stored := rec
	stored.ID = fmt.Sprintf("rec-%d", f.nextID)
	f.records = append(f.records, &stored)
	return stored.ID, nil
}

func (f *fakePresenceRepo) Touch(_ context.Context, userID, roomID string, at time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	rec := f.openRecord(userID, roomID)
	if rec == nil {
		return false, nil
	}
	if at.Before(rec.JoinedAt) {
		at = rec.JoinedAt
	}
	if err := rec.Touch(at); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakePresenceRepo) CloseOpen(_ context.Context, userID, roomID string, at time.Time) error {
	if f.failWith != nil {
		return f.failWith
	}
	if rec := f.openRecord(userID, roomID); rec != nil {
		return rec.Close(at)
	}
	return nil
}

func (f *fakePresenceRepo) ListPresent(_ context.Context, roomID string, activeSince time.Time) ([]presence.Member, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var members []presence.Member
	for _, r := range f.records {
		if r.RoomID != roomID || !r.IsOpen() || r.LastActiveAt.Before(activeSince) {
			continue
		}
		p := f.profiles[r.UserID]
		members = append(members, presence.Member{
			UserID:    r.UserID,
			Name:      p.DisplayName,
			AvatarURL: p.AvatarURL,
			IsAuthor:  r.IsAuthor,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (f *fakePresenceRepo) LatestForUser(_ context.Context, userID, roomID string, closedSince time.Time) (*presence.PresenceRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var latest *presence.PresenceRecord
	for _, r := range f.records {
		if r.UserID != userID || r.RoomID != roomID {
			continue
		}
		if !r.IsOpen() && r.LeftAt.Before(closedSince) {
			continue
		}
		if latest == nil || r.JoinedAt.After(latest.JoinedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakePresenceRepo) CloseStale(_ context.Context, staleBefore, at time.Time) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	var n int64
	for _, r := range f.records {
		if r.IsOpen() && r.LastActiveAt.Before(staleBefore) {
			_ = r.Close(at)
			n++
		}
	}
	return n, nil
}

type fakeClaims struct {
	approved map[string]string // roomID -> approved claimant userID
	names    map[string]string // userID -> display name
	failWith error
	hasCalls int
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{approved: map[string]string{}, names: map[string]string{}}
}

func (f *fakeClaims) HasApprovedClaim(_ context.Context, userID, roomID string) (bool, error) {
	f.hasCalls++
	if f.failWith != nil {
		return false, f.failWith
	}
	return f.approved[roomID] == userID, nil
}

func (f *fakeClaims) ApprovedClaimant(_ context.Context, roomID string) (*presence.AuthorClaim, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	userID, ok := f.approved[roomID]
	if !ok {
		return nil, nil
	}
	return &presence.AuthorClaim{UserID: userID, RoomID: roomID, DisplayName: f.names[userID]}, nil
}

type fakeIdentity struct {
	profiles map[string]identity.Profile
	failWith error
}

func newFakeIdentity(profiles ...identity.Profile) *fakeIdentity {
	f := &fakeIdentity{profiles: map[string]identity.Profile{}}
	for _, p := range profiles {
		f.profiles[p.UserID] = p
	}
	return f
}

func (f *fakeIdentity) Resolve(_ context.Context, userID string) (*identity.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, identity.ErrUnknownIdentity
	}
	return &p, nil
}

type notifierEvent struct {
	kind   string
	roomID string
	userID string
}

type recordingNotifier struct {
	events []notifierEvent
}

func (n *recordingNotifier) MemberJoined(roomID string, m presence.Member) {
	n.events = append(n.events, notifierEvent{kind: "joined", roomID: roomID, userID: m.UserID})
}

func (n *recordingNotifier) MemberLeft(roomID, userID string) {
	n.events = append(n.events, notifierEvent{kind: "left", roomID: roomID, userID: userID})
}

func (n *recordingNotifier) AuthorJoined(roomID, authorID string) {
	n.events = append(n.events, notifierEvent{kind: "author", roomID: roomID, userID: authorID})
}
