package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	identity "github.com/videv93/book-circle-sub001/internal/identity/port"
)

func TestAuthorPresence(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fakePresenceRepo, *fakeClaims, *JoinRoomUseCase) {
		t.Helper()
		repo := newFakePresenceRepo()
		claims := newFakeClaims()
		claims.approved["book-1"] = "author-1"
		claims.names["author-1"] = "Toni"
		ident := newFakeIdentity(identity.Profile{UserID: "author-1", DisplayName: "Toni"})
		join := NewJoinRoomUseCase(repo, claims, ident, nil)
		join.Now = fixedClock(baseTime)
		return repo, claims, join
	}

	t.Run("author currently present", func(t *testing.T) {
		repo, claims, join := setup(t)
		if _, err := join.Execute(ctx, JoinRoomInput{UserID: "author-1", RoomID: "book-1"}); err != nil {
			t.Fatalf("join failed: %v", err)
		}

		uc := NewAuthorPresenceUseCase(repo, claims, 24*time.Hour)
		uc.Now = fixedClock(baseTime.Add(time.Minute))
		res, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res == nil {
			t.Fatal("expected author presence, got nil")
		}
		if !res.IsCurrentlyPresent {
			t.Error("author with open record should read as present")
		}
		if res.AuthorID != "author-1" || res.AuthorName != "Toni" {
			t.Errorf("author identity mismatch: %+v", res)
		}
	})

	t.Run("author left recently", func(t *testing.T) {
		repo, claims, join := setup(t)
		if _, err := join.Execute(ctx, JoinRoomInput{UserID: "author-1", RoomID: "book-1"}); err != nil {
			t.Fatalf("join failed: %v", err)
		}
		leftAt := baseTime.Add(time.Hour)
		if err := repo.CloseOpen(ctx, "author-1", "book-1", leftAt); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		uc := NewAuthorPresenceUseCase(repo, claims, 24*time.Hour)
		uc.Now = fixedClock(leftAt.Add(3 * time.Hour))
		res, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res == nil {
			t.Fatal("expected author presence, got nil")
		}
		if res.IsCurrentlyPresent {
			t.Error("closed record should not read as present")
		}
		if !res.LastSeenAt.Equal(leftAt) {
			t.Errorf("lastSeenAt = %v, want %v", res.LastSeenAt, leftAt)
		}
	})

	t.Run("author visit outside the recent window", func(t *testing.T) {
		repo, claims, join := setup(t)
		if _, err := join.Execute(ctx, JoinRoomInput{UserID: "author-1", RoomID: "book-1"}); err != nil {
			t.Fatalf("join failed: %v", err)
		}
		leftAt := baseTime.Add(time.Hour)
		if err := repo.CloseOpen(ctx, "author-1", "book-1", leftAt); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		uc := NewAuthorPresenceUseCase(repo, claims, 24*time.Hour)
		uc.Now = fixedClock(leftAt.Add(25 * time.Hour))
		res, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != nil {
			t.Errorf("visit older than the window should yield nil, got %+v", res)
		}
	})

	t.Run("room without approved claim", func(t *testing.T) {
		repo := newFakePresenceRepo()
		uc := NewAuthorPresenceUseCase(repo, newFakeClaims(), 24*time.Hour)
		res, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"})
		if err != nil {
			t.Fatalf("no claim must not be an error: %v", err)
		}
		if res != nil {
			t.Errorf("expected nil without a claim, got %+v", res)
		}
	})

	t.Run("missing display name falls back", func(t *testing.T) {
		repo, claims, join := setup(t)
		delete(claims.names, "author-1")
		if _, err := join.Execute(ctx, JoinRoomInput{UserID: "author-1", RoomID: "book-1"}); err != nil {
			t.Fatalf("join failed: %v", err)
		}

		uc := NewAuthorPresenceUseCase(repo, claims, 24*time.Hour)
		uc.Now = fixedClock(baseTime.Add(time.Minute))
		res, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.AuthorName != "Author" {
			t.Errorf("author name = %q, want fallback", res.AuthorName)
		}
	})

	t.Run("claim store failure is a persistence error", func(t *testing.T) {
		claims := newFakeClaims()
		claims.failWith = errors.New("redis down")
		uc := NewAuthorPresenceUseCase(newFakePresenceRepo(), claims, 24*time.Hour)
		if _, err := uc.Execute(ctx, AuthorPresenceInput{RoomID: "book-1"}); !errors.Is(err, ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})
}
