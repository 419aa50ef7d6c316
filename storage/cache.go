package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/domain"
)

const (
	snapshotCacheKey = "board:snapshot"
	snapshotGenKey   = "board:snapshot:gen"
)

var errStaleFill = errors.New("board changed during load")

// Cache wraps a Store with a Redis read-through cache. Saves go to the
// backing store first, then bump a generation counter and evict the cached
// copy. A read-through fill only lands if the generation it started from is
// still current.
type Cache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store wrapper using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Load(ctx context.Context) (domain.Snapshot, error) {
	if snap, ok := c.loadFromCache(ctx); ok {
		return snap, nil
	}
	gen, genOK := c.generation(ctx)
	snap, err := c.base.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if genOK {
		c.store(ctx, gen, snap)
	}
	return snap, nil
}

func (c *Cache) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := c.base.Save(ctx, snap); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, snapshotGenKey).Int64()
	switch {
	case err == redis.Nil:
		return 0, true
	case err != nil:
		log.WithError(err).Debug("board cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *Cache) loadFromCache(ctx context.Context) (domain.Snapshot, bool) {
	if c.redis == nil {
		return domain.Snapshot{}, false
	}
	data, err := c.redis.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			log.WithError(err).Debug("board cache read failed")
			_ = c.redis.Del(ctx, snapshotCacheKey).Err()
		}
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		_ = c.redis.Del(ctx, snapshotCacheKey).Err()
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (c *Cache) store(ctx context.Context, gen int64, snap domain.Snapshot) {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, snapshotGenKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, snapshotCacheKey, data, c.ttl)
			return nil
		})
		return err
	}, snapshotGenKey)
	if err != nil {
		log.WithError(err).Debug("board cache fill skipped")
	}
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, snapshotGenKey).Err(); err != nil {
		log.WithError(err).Debug("board cache generation bump failed")
	}
	_, _ = c.redis.Del(ctx, snapshotCacheKey).Result()
}
