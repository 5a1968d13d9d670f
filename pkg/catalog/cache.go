package catalog

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DetailsCache holds normalized game details for a bounded time. A miss
// is never an error: cache faults degrade to a fetch.
type DetailsCache interface {
	Get(ctx context.Context, id int) (GameDetails, bool)
	Set(ctx context.Context, id int, d GameDetails)
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

// NewRedisCache caches details in redis as JSON. The TTL is jittered so
// a whole collection page does not expire at once.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) DetailsCache {
	return &redisCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *redisCache) Get(ctx context.Context, id int) (GameDetails, bool) {
	val, err := c.rdb.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return GameDetails{}, false
	}
	if err != nil {
		c.log.WithError(err).Warn("details cache read failed")
		return GameDetails{}, false
	}

	var d GameDetails
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		c.log.WithError(err).Warnf("failed to unmarshal cached details for game %d", id)
		return GameDetails{}, false
	}
	return d, true
}

func (c *redisCache) Set(ctx context.Context, id int, d GameDetails) {
	data, err := json.Marshal(d)
	if err != nil {
		c.log.WithError(err).Warn("details cache marshal failed")
		return
	}

	ttl := c.ttl + time.Duration(rand.Intn(60))*time.Second
	if err := c.rdb.Set(ctx, gameKey(id), string(data), ttl).Err(); err != nil {
		c.log.WithError(err).Warnf("failed to write cache for game %d", id)
	}
}

type memoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache is the in-process fallback used when redis is not
// configured.
func NewMemoryCache(ttl time.Duration) DetailsCache {
	return &memoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (c *memoryCache) Get(_ context.Context, id int) (GameDetails, bool) {
	v, ok := c.c.Get(gameKey(id))
	if !ok {
		return GameDetails{}, false
	}
	return v.(GameDetails), true
}

func (c *memoryCache) Set(_ context.Context, id int, d GameDetails) {
	c.c.SetDefault(gameKey(id), d)
}
