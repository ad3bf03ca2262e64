package cache

import (
	"testing"
	"time"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := New[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() found a key that was never set")
	}

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Errorf("Get(a) = %q, %v; want alpha, true", got, ok)
	}

	c.Set("a", "updated")
	if got, _ := c.Get("a"); got != "updated" {
		t.Errorf("Get(a) after overwrite = %q, want updated", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)
	c.Set("n", 42)

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("n"); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestTTLCache_EvictsOldest(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry missing after eviction")
	}
}

func TestTTLCache_Flush(t *testing.T) {
	c := New[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived Flush")
	}
}

func TestTTLCache_Sweep(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if removed := c.Sweep(); removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Sweep() dropped a live entry")
	}
}

func TestSweeper(t *testing.T) {
	c := New[int](4, time.Millisecond)
	c.Set("a", 1)

	s := NewSweeper()
	s.Register(c)
	s.Start(5 * time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	s.Stop()

	if c.Len() != 0 {
		t.Errorf("sweeper left %d expired entries", c.Len())
	}
}
