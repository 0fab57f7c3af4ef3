package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(2 * time.Minute)
	c.Set("c", "z")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if v, ok := c.Get("c"); !ok || v != "z" {
		t.Fatalf("c = %q, %v", v, ok)
	}
	st := c.Stats()
	if st.Size != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestLRUNoTTL(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](1, 0)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("entry without TTL expired")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("purge left %d entries", c.Size())
	}
}

func TestManagerCleanOnceAndStop(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](4, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanOnce(); n != 1 {
		t.Fatalf("CleanOnce() = %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
