package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const staleSuffix = ":stale"

// Redis shares cached values between instances. Each Set writes the value
// under key with ttl and a copy under key+":stale" that outlives it.
type Redis[V any] struct {
	client   redis.UniversalClient
	prefix   string
	staleTTL time.Duration
	timeout  time.Duration
}

func NewRedis[V any](client redis.UniversalClient, prefix string, staleTTL time.Duration) *Redis[V] {
	if staleTTL <= 0 {
		staleTTL = 24 * time.Hour
	}
	return &Redis[V]{client: client, prefix: prefix, staleTTL: staleTTL, timeout: 2 * time.Second}
}

func (c *Redis[V]) Get(key string) (V, bool) {
	return c.read(c.prefix + key)
}

func (c *Redis[V]) GetStale(key string) (V, bool) {
	return c.read(c.prefix + key + staleSuffix)
}

// Set with ttl <= 0 only refreshes the stale copy; the fresh key is
// removed so the next Get misses.
func (c *Redis[V]) Set(key string, value V, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	pipe := c.client.TxPipeline()
	if ttl > 0 {
		pipe.Set(ctx, c.prefix+key, raw, ttl)
	} else {
		pipe.Del(ctx, c.prefix+key)
	}
	pipe.Set(ctx, c.prefix+key+staleSuffix, raw, c.staleTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (c *Redis[V]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+key, c.prefix+key+staleSuffix).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache delete failed")
	}
}

func (c *Redis[V]) DeletePrefix(prefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.WithError(err).WithField("prefix", prefix).Warn("Cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).WithField("prefix", prefix).Warn("Cache delete failed")
	}
}

func (c *Redis[V]) read(key string) (V, bool) {
	var v V
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return v, false
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache decode failed")
		return v, false
	}
	return v, true
}
