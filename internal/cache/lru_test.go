package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](4, time.Minute).WithClock(clock.now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	clock.advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be dropped on read, size=%d", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Errorf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Errorf("a was recently used and should remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Errorf("c should be present")
	}
}

func TestLRUCache_SetIf(t *testing.T) {
	c := NewLRUCache[int](4, time.Hour)
	newer := func(next int) func(int, bool) bool {
		return func(cur int, ok bool) bool { return !ok || next > cur }
	}

	if !c.SetIf("k", 5, newer(5)) {
		t.Fatalf("first SetIf should store")
	}
	if c.SetIf("k", 3, newer(3)) {
		t.Fatalf("older value should be rejected")
	}
	if v, _ := c.Get("k"); v != 5 {
		t.Fatalf("value = %d, want 5", v)
	}
	if !c.SetIf("k", 9, newer(9)) {
		t.Fatalf("newer value should be stored")
	}
	if v, _ := c.Get("k"); v != 9 {
		t.Fatalf("value = %d, want 9", v)
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](8, time.Second).WithClock(clock.now)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.advance(2 * time.Second)
	c.Set("c", 3)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("Sweep removed %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
