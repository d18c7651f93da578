package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/ticketbooking/cache"
	"github.com/arunvm123/ticketbooking/config"
	"github.com/redis/go-redis/v9"
)

const tagKeyPrefix = "tag:"

// invalidateTagsScript deletes the members of each tag set and the set itself
// atomically, so a concurrent Set cannot slip a key into a set that is about
// to disappear. Members are deleted in chunks to stay under unpack limits.
var invalidateTagsScript = redis.NewScript(`
local removed = 0
for _, tag in ipairs(KEYS) do
	local members = redis.call('SMEMBERS', tag)
	for i = 1, #members, 500 do
		removed = removed + redis.call('DEL', unpack(members, i, math.min(i + 499, #members)))
	end
	redis.call('DEL', tag)
end
return removed
`)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

type Cache struct {
	client *redis.Client
	tagTTL time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// NewCache stores entries in client. Tag sets expire after tagTTL, which must
// be longer than any entry TTL.
func NewCache(client *redis.Client, tagTTL time.Duration) *Cache {
	return &Cache{
		client: client,
		tagTTL: tagTTL,
	}
}

func tagKey(tag string) string {
	return tagKeyPrefix + tag
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if len(tags) == 0 {
		return c.client.Set(ctx, key, data, ttl).Err()
	}

	// MULTI/EXEC keeps the entry and its tag membership in step.
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKey(tag), key)
		if c.tagTTL > 0 {
			pipe.Expire(ctx, tagKey(tag), c.tagTTL)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}

	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = tagKey(tag)
	}

	if err := invalidateTagsScript.Run(ctx, c.client, keys).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tags: %w", err)
	}
	return nil
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
