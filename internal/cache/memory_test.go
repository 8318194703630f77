package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()

	c.Set("key", "value", time.Minute)

	value, found := c.Get("key")
	if !found {
		t.Fatal("Expected key to be found")
	}
	if value != "value" {
		t.Errorf("Expected %q, got %v", "value", value)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()

	c.Set("short", "value", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("Expected expired entry to be gone")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be evicted, %d entries remain", c.Len())
	}
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()

	c.Set("forever", "value", 0)
	time.Sleep(2 * time.Millisecond)

	if _, found := c.Get("forever"); !found {
		t.Error("Expected zero-TTL entry to stay")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	if _, found := c.Get("key"); found {
		t.Error("Expected deleted key to be gone")
	}
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := NewMemoryCache()

	c.Set("task:u1:a", 1, time.Minute)
	c.Set("task:u1:b", 2, time.Minute)
	c.Set("stats:u1", 3, time.Minute)

	c.DeletePattern("task:u1:*")

	if _, found := c.Get("task:u1:a"); found {
		t.Error("Expected task:u1:a to be deleted")
	}
	if _, found := c.Get("task:u1:b"); found {
		t.Error("Expected task:u1:b to be deleted")
	}
	if _, found := c.Get("stats:u1"); !found {
		t.Error("Expected stats:u1 to survive")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache()

	c.Set("key", "value", time.Minute)
	c.Get("key")
	c.Get("nope")

	stats := c.Stats()
	if stats["hits"] != int64(1) {
		t.Errorf("Expected 1 hit, got %v", stats["hits"])
	}
	if stats["misses"] != int64(1) {
		t.Errorf("Expected 1 miss, got %v", stats["misses"])
	}
	if stats["entries"] != 1 {
		t.Errorf("Expected 1 entry, got %v", stats["entries"])
	}
}
