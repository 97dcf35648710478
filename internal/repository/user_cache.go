package repository

// CachedUserRepo decorates a UserStore with a Redis read-through cache on
// GetByID. The authentication middleware re-fetches the account on every
// request, so this lookup is by far the hottest query; caching it keeps the
// database out of the per-request path. Every write goes to the underlying
// store first and then deletes the cached entry, so a blocked account or a
// rotated refresh hash is visible no later than the next request.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Romanticus/TRexpress/internal/model"
)

const userCachePrefix = "user:id:"

type CachedUserRepo struct {
	store UserStore
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedUserRepo wraps store with a Redis cache. A nil client disables
// caching entirely; every call passes straight through.
func NewCachedUserRepo(store UserStore, rdb *redis.Client, ttl time.Duration) *CachedUserRepo {
	return &CachedUserRepo{store: store, rdb: rdb, ttl: ttl}
}

func (r *CachedUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	if r.rdb == nil {
		return r.store.GetByID(ctx, id)
	}
	key := userCachePrefix + id
	if raw, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
		var u model.User
		if err := json.Unmarshal(raw, &u); err == nil {
			return u, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = r.rdb.Del(ctx, key).Err()
	}
	u, err := r.store.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if raw, err := json.Marshal(u); err == nil {
		// Cache failures are not fatal; the store already answered.
		_ = r.rdb.Set(ctx, key, raw, r.ttl).Err()
	}
	return u, nil
}

// GetByEmail is not cached: it is only hit on login, and login rewrites the
// refresh hash anyway.
func (r *CachedUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.store.GetByEmail(ctx, email)
}

// List is not cached; pages change with every registration.
func (r *CachedUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int, error) {
	return r.store.List(ctx, page, limit)
}

func (r *CachedUserRepo) Create(ctx context.Context, u *model.User) error {
	if err := r.store.Create(ctx, u); err != nil {
		return err
	}
	r.invalidate(ctx, u.ID)
	return nil
}

func (r *CachedUserRepo) UpdateActive(ctx context.Context, id string, active bool) error {
	if err := r.store.UpdateActive(ctx, id, active); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepo) UpdateRefreshHash(ctx context.Context, id, hash string) error {
	if err := r.store.UpdateRefreshHash(ctx, id, hash); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepo) invalidate(ctx context.Context, id string) {
	if r.rdb == nil {
		return
	}
	_ = r.rdb.Del(ctx, userCachePrefix+id).Err()
}
