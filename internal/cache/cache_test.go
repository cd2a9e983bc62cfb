// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(50 * time.Millisecond)

	c.Set("key1", "value1")

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(80 * time.Millisecond)

	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}

	stats := c.GetStats()
	if stats.Evictions == 0 {
		t.Error("Expected eviction to be recorded for expired entry")
	}
}

func TestCacheReplaceEntry(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key", "old")
	c.Set("key", "new")

	value, _ := c.Get("key")
	if value != "new" {
		t.Errorf("Expected replacement value, got %v", value)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c := New(1 * time.Hour)

	c.SetWithTTL("short", "v", 30*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	if _, exists := c.Get("short"); exists {
		t.Error("Expected custom-TTL entry to expire before default TTL")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, exists := c.Get("a"); exists {
		t.Error("Expected cache to be empty after Clear")
	}
	if got := c.GetStats().TotalKeys; got != 0 {
		t.Errorf("Expected 0 keys after Clear, got %d", got)
	}
}

func TestCacheHitRate(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key", "value")
	c.Get("key")    // hit
	c.Get("absent") // miss

	if rate := c.HitRate(); rate != 50.0 {
		t.Errorf("Expected 50%% hit rate, got %.1f", rate)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(1 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", n)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if got := c.GetStats().TotalKeys; got != 10 {
		t.Errorf("Expected 10 keys, got %d", got)
	}
}
