package recall

import (
	"testing"
	"time"
)

func TestRecentCache(t *testing.T) {
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	now := base
	c := NewRecentCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	if c.Recent("123") {
		t.Error("empty cache should not report recent")
	}

	c.Record("123")
	if !c.Recent("123") {
		t.Error("freshly recorded entry should be recent")
	}
	if c.Recent("456") {
		t.Error("unrecorded entry should not be recent")
	}

	now = base.Add(4 * time.Minute)
	if !c.Recent("123") {
		t.Error("entry within TTL should still be recent")
	}

	now = base.Add(5 * time.Minute)
	if c.Recent("123") {
		t.Error("entry at TTL boundary should have expired")
	}

	// A repeat recall refreshes the window.
	c.Record("123")
	now = base.Add(9 * time.Minute)
	if !c.Recent("123") {
		t.Error("refreshed entry should be recent again")
	}
}

func TestRecentCacheEmptyID(t *testing.T) {
	c := NewRecentCache(0)
	c.Record("")
	if c.Recent("") {
		t.Error("empty identifier must never be recent")
	}
}

func TestRecentCacheDefaultTTL(t *testing.T) {
	c := NewRecentCache(0)
	if c.ttl != DefaultRecallTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultRecallTTL)
	}
	c = NewRecentCache(-time.Second)
	if c.ttl != DefaultRecallTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultRecallTTL)
	}
}
