package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client, a key
// prefix and an optional TTL (0 for keys that should not expire).
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	log    *logrus.Logger
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration, log *logrus.Logger) *ViewCache[T] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, log: log}
}

// Get returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.WithField("key", c.prefix+key).WithError(err).Warn("view cache read failed")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.WithField("key", c.prefix+key).WithError(err).Warn("view cache entry unreadable")
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Errors are logged rather than returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithField("key", c.prefix+key).WithError(err).Error("view cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithField("key", c.prefix+key).WithError(err).Warn("view cache write failed")
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.WithField("key", c.prefix+key).WithError(err).Warn("view cache delete failed")
	}
}
