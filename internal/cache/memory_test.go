package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache[[]string](time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	c.Set("biases", []string{"Optimist", "Skeptic"}, 0)
	got, ok := c.Get("biases")
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if len(got) != 2 || got[0] != "Optimist" {
		t.Errorf("Expected [Optimist Skeptic], got %v", got)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[int](time.Minute, time.Minute)
	c.Set("short", 1, 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache[string](time.Minute, time.Minute)
	c.Set("a", "1", 0)
	c.Set("b", "2", 0)

	c.Clear()
	for _, key := range []string{"a", "b"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("Expected %s to be gone after Clear", key)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("event_type", 3); got != "infodemic:v1:event_type:3" {
		t.Errorf("Expected infodemic:v1:event_type:3, got %s", got)
	}
}
