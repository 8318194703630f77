package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	c := NewRedisCache(cfg)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := c.Set(ctx, "key", payload{Name: "tasks", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got payload
	if err := c.Get(ctx, "key", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "tasks" || got.Count != 3 {
		t.Errorf("Get() = %+v, want {tasks 3}", got)
	}
}

func TestRedisCache_MissIsErrCacheMiss(t *testing.T) {
	c, _ := newTestRedisCache(t)

	var dest string
	err := c.Get(context.Background(), "absent", &dest)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var dest string
	if err := c.Get(ctx, "key", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after TTL error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Delete(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var dest string
	if err := c.Get(ctx, "key", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	for _, key := range []string{"task:u1:a", "task:u1:b", "stats:u1"} {
		if err := c.Set(ctx, key, "value", time.Minute); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := c.DeletePattern(ctx, "task:u1:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var dest string
	if err := c.Get(ctx, "task:u1:a", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected task:u1:a to be deleted, got %v", err)
	}
	if err := c.Get(ctx, "stats:u1", &dest); err != nil {
		t.Errorf("Expected stats:u1 to survive, got %v", err)
	}
}

func TestRedisCache_Exists(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	found, err := c.Exists(ctx, "key")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if found {
		t.Error("Exists() = true for absent key")
	}

	if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	found, err = c.Exists(ctx, "key")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !found {
		t.Error("Exists() = false for present key")
	}
}

func TestRedisCache_BreakerShieldsDeadRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	cfg.MaxRetries = 0
	cfg.DialTimeout = 100 * time.Millisecond
	c := NewRedisCache(cfg)
	defer c.Close()

	mr.Close()

	ctx := context.Background()
	var dest string
	for i := 0; i < DefaultCircuitBreakerConfig().MaxFailures; i++ {
		if err := c.Get(ctx, "key", &dest); err == nil {
			t.Fatal("Expected error against closed redis")
		}
	}

	// Breaker is open now; further reads degrade to ErrCacheDown.
	if err := c.Get(ctx, "key", &dest); !errors.Is(err, ErrCacheDown) {
		t.Errorf("Get() with open breaker error = %v, want ErrCacheDown", err)
	}
}

func TestRedisCache_Health(t *testing.T) {
	c, mr := newTestRedisCache(t)

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}

	mr.Close()
	if err := c.Health(context.Background()); err == nil {
		t.Error("Health() against closed redis should fail")
	}
}

func TestRedisCache_Stats(t *testing.T) {
	c, _ := newTestRedisCache(t)

	stats := c.Stats()
	if _, ok := stats["breaker_state"]; !ok {
		t.Error("Expected breaker_state in stats")
	}
	if _, ok := stats["pool_total"]; !ok {
		t.Error("Expected pool_total in stats")
	}
}
