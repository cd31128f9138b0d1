package rendercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	cache, err := NewRedisStore("redis://"+s.Addr(), ttl)
	if err != nil {
		t.Fatalf("failed to create render cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, s
}

func TestNewRedisStore(t *testing.T) {
	cache, _ := setupTestRedis(t, time.Minute)
	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url", time.Minute); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestPutAndGet(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	entry := Entry{HTML: "<p>Hello</p>", Text: "Hello", Excerpt: "Hello"}
	if err := cache.Put(ctx, "abc123", "ltr", entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !s.Exists("render:ltr:abc123") {
		t.Fatal("expected key render:ltr:abc123 to exist")
	}
	if ttl := s.TTL("render:ltr:abc123"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	got, err := cache.Get(ctx, "abc123", "ltr")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.HTML != entry.HTML || got.Text != entry.Text {
		t.Errorf("Get() = %+v, want %+v", got, entry)
	}
	if got.CachedAt.IsZero() {
		t.Error("expected CachedAt to be stamped")
	}

	if _, err := cache.Get(ctx, "abc123", "rtl"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(other variant) error = %v, want ErrMiss", err)
	}
}

func TestGetExpired(t *testing.T) {
	cache, s := setupTestRedis(t, time.Second)
	ctx := context.Background()

	if err := cache.Put(ctx, "fp", "", Entry{HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "fp", ""); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(expired) error = %v, want ErrMiss", err)
	}
}

func TestEmptyFingerprintIsNeverCached(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	if err := cache.Put(ctx, "", "ltr", Entry{HTML: "x"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if keys := s.Keys(); len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
	if _, err := cache.Get(ctx, "", "ltr"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(empty) error = %v, want ErrMiss", err)
	}
}

func TestGetCorruptEntry(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	if err := s.Set("render:ltr:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := cache.Get(context.Background(), "bad", "ltr"); err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get(corrupt) error = %v, want decode error", err)
	}
}

func TestPurge(t *testing.T) {
	cache, s := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	for _, fp := range []string{"a", "b", "c"} {
		if err := cache.Put(ctx, fp, "ltr", Entry{HTML: fp}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := s.Set("unrelated", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	removed, err := cache.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Purge() removed %d, want 3", removed)
	}
	if !s.Exists("unrelated") {
		t.Error("Purge removed a key outside the render prefix")
	}
}
