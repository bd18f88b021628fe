package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "github.com/videv93/book-circle-sub001/internal/infrastructure/cache/port"
	presence "github.com/videv93/book-circle-sub001/internal/pkg/presence/application/domain"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

const claimCacheTTL = 5 * time.Minute

// CachedClaimRepository is a read-through cache in front of a ClaimRepository.
// Claims change rarely (a verification workflow approves them), so a short TTL
// keeps the author badge cheap on hot rooms. Cache failures degrade to direct
// store reads; they never fail the lookup.
type CachedClaimRepository struct {
	inner repository.ClaimRepository
	cache cacheport.Cache
	ttl   time.Duration
}

func NewCachedClaimRepository(inner repository.ClaimRepository, cache cacheport.Cache) *CachedClaimRepository {
	return &CachedClaimRepository{inner: inner, cache: cache, ttl: claimCacheTTL}
}

var _ repository.ClaimRepository = (*CachedClaimRepository)(nil)

func (r *CachedClaimRepository) HasApprovedClaim(ctx context.Context, userID, roomID string) (bool, error) {
	key := "claim:has:" + roomID + ":" + userID
	// Miss and transport error alike fall through to the store.
	if r.cache != nil {
		if v, err := r.cache.Get(ctx, key); err == nil {
			return v == "1", nil
		}
	}

	ok, err := r.inner.HasApprovedClaim(ctx, userID, roomID)
	if err != nil {
		return false, err
	}
	if r.cache != nil {
		v := "0"
		if ok {
			v = "1"
		}
		_ = r.cache.Set(ctx, key, v, r.ttl)
	}
	return ok, nil
}

// cachedClaimant is the cache representation; an empty UserID marks a cached
// "no approved claim" answer so negative lookups are cheap too.
type cachedClaimant struct {
	UserID      string `json:"user_id"`
	RoomID      string `json:"room_id"`
	DisplayName string `json:"display_name"`
}

func (r *CachedClaimRepository) ApprovedClaimant(ctx context.Context, roomID string) (*presence.AuthorClaim, error) {
	key := "claim:room:" + roomID
	if r.cache != nil {
		if v, err := r.cache.Get(ctx, key); err == nil {
			var c cachedClaimant
			if json.Unmarshal([]byte(v), &c) == nil {
				if c.UserID == "" {
					return nil, nil
				}
				return &presence.AuthorClaim{UserID: c.UserID, RoomID: c.RoomID, DisplayName: c.DisplayName}, nil
			}
		}
	}

	claim, err := r.inner.ApprovedClaimant(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		var c cachedClaimant
		if claim != nil {
			c = cachedClaimant{UserID: claim.UserID, RoomID: claim.RoomID, DisplayName: claim.DisplayName}
		}
		if data, err := json.Marshal(c); err == nil {
			_ = r.cache.Set(ctx, key, string(data), r.ttl)
		}
	}
	return claim, nil
}
