package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	cacheport "github.com/videv93/book-circle-sub001/internal/infrastructure/cache/port"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
)

type fakeCache struct {
	values  map[string]string
	getErr  error
	sets    int
	getReqs int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.getReqs++
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.sets++
	c.values[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
	}
	return n, nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }
func (c *fakeCache) Close() error               { return nil }

type fakeClaimStore struct {
	approved map[string]string // roomID -> claimant userID
	names    map[string]string
	calls    int
	failWith error
}

func (s *fakeClaimStore) HasApprovedClaim(_ context.Context, userID, roomID string) (bool, error) {
	s.calls++
	if s.failWith != nil {
		return false, s.failWith
	}
	return s.approved[roomID] == userID, nil
}

func (s *fakeClaimStore) ApprovedClaimant(_ context.Context, roomID string) (*presence.AuthorClaim, error) {
	s.calls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	userID, ok := s.approved[roomID]
	if !ok {
		return nil, nil
	}
	return &presence.AuthorClaim{UserID: userID, RoomID: roomID, DisplayName: s.names[userID]}, nil
}

func TestCachedClaimRepositoryHasApprovedClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("miss reads the store and caches the answer", func(t *testing.T) {
		cache := newFakeCache()
		store := &fakeClaimStore{approved: map[string]string{"book-1": "author-1"}}
		repo := NewCachedClaimRepository(store, cache)

		ok, err := repo.HasApprovedClaim(ctx, "author-1", "book-1")
		if err != nil || !ok {
			t.Fatalf("HasApprovedClaim = (%v, %v), want (true, nil)", ok, err)
		}
		if store.calls != 1 || cache.sets != 1 {
			t.Errorf("store calls = %d, cache sets = %d, want 1 and 1", store.calls, cache.sets)
		}

		// Second lookup is served from the cache.
		if ok, err := repo.HasApprovedClaim(ctx, "author-1", "book-1"); err != nil || !ok {
			t.Fatalf("cached lookup = (%v, %v), want (true, nil)", ok, err)
		}
		if store.calls != 1 {
			t.Errorf("store calls after cache hit = %d, want 1", store.calls)
		}
	})

	t.Run("negative answers are cached too", func(t *testing.T) {
		cache := newFakeCache()
		store := &fakeClaimStore{approved: map[string]string{}}
		repo := NewCachedClaimRepository(store, cache)

		for i := 0; i < 2; i++ {
			if ok, err := repo.HasApprovedClaim(ctx, "u1", "book-1"); err != nil || ok {
				t.Fatalf("HasApprovedClaim = (%v, %v), want (false, nil)", ok, err)
			}
		}
		if store.calls != 1 {
			t.Errorf("store calls = %d, want 1 (negative answer cached)", store.calls)
		}
	})

	t.Run("cache transport error degrades to the store", func(t *testing.T) {
		cache := newFakeCache()
		cache.getErr = errors.New("connection refused")
		store := &fakeClaimStore{approved: map[string]string{"book-1": "author-1"}}
		repo := NewCachedClaimRepository(store, cache)

		ok, err := repo.HasApprovedClaim(ctx, "author-1", "book-1")
		if err != nil || !ok {
			t.Fatalf("HasApprovedClaim = (%v, %v), want (true, nil)", ok, err)
		}
		if store.calls != 1 {
			t.Errorf("store calls = %d, want 1", store.calls)
		}
	})
}

func TestCachedClaimRepositoryApprovedClaimant(t *testing.T) {
	ctx := context.Background()

	t.Run("claimant round-trips through the cache", func(t *testing.T) {
		cache := newFakeCache()
		store := &fakeClaimStore{
			approved: map[string]string{"book-1": "author-1"},
			names:    map[string]string{"author-1": "Toni"},
		}
		repo := NewCachedClaimRepository(store, cache)

		first, err := repo.ApprovedClaimant(ctx, "book-1")
		if err != nil || first == nil {
			t.Fatalf("ApprovedClaimant = (%v, %v)", first, err)
		}
		second, err := repo.ApprovedClaimant(ctx, "book-1")
		if err != nil {
			t.Fatalf("cached claimant lookup failed: %v", err)
		}
		if store.calls != 1 {
			t.Errorf("store calls = %d, want 1", store.calls)
		}
		if *second != *first {
			t.Errorf("cached claimant %+v differs from stored %+v", second, first)
		}
	})

	t.Run("no-claim answer is cached as nil", func(t *testing.T) {
		cache := newFakeCache()
		store := &fakeClaimStore{approved: map[string]string{}}
		repo := NewCachedClaimRepository(store, cache)

		for i := 0; i < 2; i++ {
			claim, err := repo.ApprovedClaimant(ctx, "book-1")
			if err != nil || claim != nil {
				t.Fatalf("ApprovedClaimant = (%v, %v), want (nil, nil)", claim, err)
			}
		}
		if store.calls != 1 {
			t.Errorf("store calls = %d, want 1 (negative claimant cached)", store.calls)
		}
	})
}
