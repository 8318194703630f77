package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMultiLevelCache_WithoutRedis(t *testing.T) {
	c := NewMultiLevelCache(nil)
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got string
	if err := c.Get(ctx, "key", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}

	if err := c.Get(ctx, "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() for absent key error = %v, want ErrCacheMiss", err)
	}
}

func TestMultiLevelCache_PromotesToL1(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	redisCache := NewRedisCache(cfg)
	defer redisCache.Close()

	c := NewMultiLevelCache(redisCache)
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Simulate a fresh process: empty L1, populated redis.
	c.l1 = NewMemoryCache()

	var got string
	if err := c.Get(ctx, "key", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}

	if c.l1.Len() != 1 {
		t.Errorf("Expected L2 hit to be promoted into L1, L1 has %d entries", c.l1.Len())
	}

	// A dead redis must not hide the promoted entry.
	mr.Close()
	got = ""
	if err := c.Get(ctx, "key", &got); err != nil {
		t.Fatalf("Get() from L1 error = %v", err)
	}
	if got != "value" {
		t.Errorf("Get() from L1 = %q, want %q", got, "value")
	}
}

func TestMultiLevelCache_PromotedEntryDetachedFromCaller(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	redisCache := NewRedisCache(cfg)
	defer redisCache.Close()

	c := NewMultiLevelCache(redisCache)
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
	}

	if err := c.Set(ctx, "key", payload{Title: "original"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Force the next Get to come from redis and promote into L1.
	c.l1 = NewMemoryCache()

	var first payload
	if err := c.Get(ctx, "key", &first); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the promoted entry.
	first.Title = "mutated"

	var second payload
	if err := c.Get(ctx, "key", &second); err != nil {
		t.Fatalf("Get() from L1 error = %v", err)
	}
	if second.Title != "original" {
		t.Errorf("Get() after caller mutation = %q, want %q", second.Title, "original")
	}
}

func TestMultiLevelCache_DeleteClearsBothLevels(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	redisCache := NewRedisCache(cfg)
	defer redisCache.Close()

	c := NewMultiLevelCache(redisCache)
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got string
	if err := c.Get(ctx, "key", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
	if mr.Exists("key") {
		t.Error("Expected key to be gone from redis")
	}
}

func TestMultiLevelCache_DeletePattern(t *testing.T) {
	c := NewMultiLevelCache(nil)
	ctx := context.Background()

	_ = c.Set(ctx, "task:u1:a", 1, time.Minute)
	_ = c.Set(ctx, "stats:u1", 2, time.Minute)

	if err := c.DeletePattern(ctx, "task:u1:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var got int
	if err := c.Get(ctx, "task:u1:a", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected task:u1:a to be deleted, got %v", err)
	}
	if err := c.Get(ctx, "stats:u1", &got); err != nil {
		t.Errorf("Expected stats:u1 to survive, got %v", err)
	}
}

func TestMultiLevelCache_Stats(t *testing.T) {
	c := NewMultiLevelCache(nil)

	stats := c.Stats()
	if _, ok := stats["l1"]; !ok {
		t.Error("Expected l1 section in stats")
	}
	if _, ok := stats["l2"]; ok {
		t.Error("Did not expect l2 section without redis")
	}
}
