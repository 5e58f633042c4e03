package cache

import (
	"testing"
	"time"
)

func TestTTLExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewWithClock[string](clock)

	c.Put("a", "one", 5*time.Minute)

	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Fatalf("Get(a) = %q, %v; want one, true", v, ok)
	}

	now = now.Add(4 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived past expiry")
	}
}

func TestTTLMiss(t *testing.T) {
	c := New[int]()
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache returned a value")
	}
}

func TestTTLDelete(t *testing.T) {
	c := New[int]()
	c.Put("k", 7, time.Hour)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("Get after Delete returned a value")
	}
}

func TestTTLSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewWithClock[int](clock)

	c.Put("old", 1, time.Minute)
	c.Put("fresh", 2, time.Hour)

	now = now.Add(10 * time.Minute)
	if dropped := c.Sweep(); dropped != 1 {
		t.Fatalf("Sweep dropped %d entries, want 1", dropped)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("Sweep removed an unexpired entry")
	}
}
