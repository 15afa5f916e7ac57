package actor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const CacheKeyPrefix = "actor:"

// DefaultCacheTTL bounds how long a suspension made outside the service can
// go unnoticed.
const DefaultCacheTTL = 30 * time.Second

// CachedRepository keeps actor rows in redis and collapses concurrent
// misses for the same id into one database read. Writes through this
// repository drop the entry at once; a row changed outside the service is
// served stale for at most the ttl.
type CachedRepository struct {
	next   Repository
	rdb    *redis.Client
	ttl    time.Duration
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewCachedRepository(next Repository, rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *CachedRepository {
	l := zap.L().Named("actor.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("actor.cache")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl, sf: &singleflight.Group{}, logger: l}
}

func (r *CachedRepository) FindByID(ctx context.Context, id string) (*Actor, error) {
	cacheKey := CacheKeyPrefix + id

	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var a Actor
			if json.Unmarshal([]byte(cached), &a) == nil {
				return &a, nil
			}
		} else if err != redis.Nil {
			r.logger.Warn("actor cache read failed", zap.String("actor_id", id), zap.Error(err))
		}
	}

	v, err, _ := r.sf.Do(cacheKey, func() (interface{}, error) {
		a, err := r.next.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if r.rdb != nil {
			if data, err := json.Marshal(a); err == nil {
				if err := r.rdb.Set(ctx, cacheKey, string(data), r.ttl).Err(); err != nil {
					r.logger.Warn("actor cache write failed", zap.String("actor_id", id), zap.Error(err))
				}
			}
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	a := *v.(*Actor)
	return &a, nil
}

func (r *CachedRepository) UpdateOverrides(ctx context.Context, id string, overrides map[string]bool) error {
	if err := r.next.UpdateOverrides(ctx, id, overrides); err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

func (r *CachedRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if err := r.next.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	r.Invalidate(ctx, id)
	return nil
}

func (r *CachedRepository) Invalidate(ctx context.Context, id string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, CacheKeyPrefix+id).Err(); err != nil {
		r.logger.Warn("actor cache invalidate failed", zap.String("actor_id", id), zap.Error(err))
	}
}
