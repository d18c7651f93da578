package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache whose entries can be grouped under tags. A tag
// names a family of keys (such as every page of a listing) so the family can
// be dropped without scanning the keyspace.
type Cache interface {
	// Get decodes the entry into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value for ttl and records key under each tag.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, keys ...string) error
	// InvalidateTags deletes every key recorded under the tags, then the tags.
	InvalidateTags(ctx context.Context, tags ...string) error
	Ping(ctx context.Context) error
}
