// Package rendercache keeps rendered project bodies in Redis, keyed by the
// fingerprint of the canonical document they were rendered from.
package rendercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when nothing is cached for the key.
var ErrMiss = errors.New("render cache miss")

const defaultTTL = 24 * time.Hour

// Entry holds the rendered forms of one canonical document.
type Entry struct {
	HTML     string    `json:"html"`
	Text     string    `json:"text"`
	Excerpt  string    `json:"excerpt"`
	CachedAt time.Time `json:"cached_at"`
}

// RedisStore implements the render cache using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "render:",
		ttl:    ttl,
	}
}

// key scopes a fingerprint by variant, since the same document renders
// differently per text direction.
func (s *RedisStore) key(fingerprint, variant string) string {
	if variant == "" {
		variant = "default"
	}
	return s.prefix + variant + ":" + fingerprint
}

// Get returns the cached entry or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, fingerprint, variant string) (Entry, error) {
	if fingerprint == "" {
		return Entry{}, ErrMiss
	}
	payload, err := s.client.Get(ctx, s.key(fingerprint, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read render cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, fmt.Errorf("unmarshal render cache entry: %w", err)
	}
	return entry, nil
}

// Put stores entry with the configured TTL. Empty fingerprints are ignored.
func (s *RedisStore) Put(ctx context.Context, fingerprint, variant string, entry Entry) error {
	if fingerprint == "" {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal render cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(fingerprint, variant), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("write render cache: %w", err)
	}
	return nil
}

// Purge removes every cached render and reports how many keys were dropped.
func (s *RedisStore) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scan render cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("purge render cache: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
