// Package cachesvc provides the Redis-backed cache used for computed
// progress stats.
package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(ctx context.Context, conf *core.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &RedisCache{client: client}, nil
}

// GetJSON reads key into dst; the ok result is false on a cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "reading cache")
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrap(err, "decoding cached value")
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "encoding cached value")
	}
	return errors.Wrap(c.client.Set(ctx, key, data, ttl).Err(), "writing cache")
}

func (c *RedisCache) Close() error { return c.client.Close() }
