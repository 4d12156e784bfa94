package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a to survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }
	c.Set("k", "v")

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	now = now.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 cleaned, got %d", n)
	}
}

func TestLocalStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(10, time.Minute)
	for _, k := range []string{"report:alice:yearly:2024", "report:alice:monthly:2024-05", "report:bob:yearly:2024"} {
		if err := s.Set(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	n, err := s.DeletePrefix(ctx, "report:alice:")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed, got %d (err=%v)", n, err)
	}
	if _, ok, _ := s.Get(ctx, "report:bob:yearly:2024"); !ok {
		t.Fatalf("other owner's entry should remain")
	}
}

func TestLRUEvictionHook(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](2, time.Minute)
	c.now = func() time.Time { return now }

	got := map[string]EvictReason{}
	c.OnEvict(func(key string, reason EvictReason) { got[key] = reason })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	if got["a"] != EvictCapacity {
		t.Fatalf("expected a evicted for capacity, got %v", got)
	}

	now = now.Add(2 * time.Minute)
	c.Get("b")
	if got["b"] != EvictExpired {
		t.Fatalf("expected b evicted as expired, got %v", got)
	}

	c.DeletePrefix("c")
	if _, ok := got["c"]; ok {
		t.Fatalf("explicit delete should not call the hook")
	}
}
