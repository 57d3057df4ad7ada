package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) IncrCacheHit()  { o.hits++ }
func (o *countingObserver) IncrCacheMiss() { o.misses++ }

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := NewMemory(tickingClock())
	cache := newMapCache()
	observer := &countingObserver{}
	s := NewCachedStore(backing, cache, 0, observer, nil)

	saved, err := s.Save(ctx, samplePlan("Ana", "Torre", 100000))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if cache.ttls[cacheKeyPrefix+saved.ID] != DefaultCacheTTL {
		t.Errorf("expected the record cached with the default TTL")
	}

	if _, err := s.Get(ctx, saved.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if observer.hits != 1 || observer.misses != 0 {
		t.Errorf("expected a cache hit, got %+v", observer)
	}

	edited := saved.Plan
	edited.Client = "Ana María"
	if _, err := s.Update(ctx, saved.ID, edited); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := s.Get(ctx, saved.ID)
	if got.Plan.Client != "Ana María" {
		t.Errorf("cache served a stale plan: %q", got.Plan.Client)
	}

	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := cache.data[cacheKeyPrefix+saved.ID]; ok {
		t.Errorf("deleted plan still cached")
	}
	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if observer.misses != 1 {
		t.Errorf("expected one miss, got %+v", observer)
	}
}

func TestCachedStoreFallsThrough(t *testing.T) {
	ctx := context.Background()
	backing := NewMemory(tickingClock())
	saved, _ := backing.Save(ctx, samplePlan("Ana", "Torre", 100000))

	cache := newMapCache()
	cache.failGet = true
	s := NewCachedStore(backing, cache, time.Minute, nil, nil)

	got, err := s.Get(ctx, saved.ID)
	if err != nil || got.ID != saved.ID {
		t.Fatalf("expected the backing store to answer, got %+v, %v", got, err)
	}

	cache.failGet = false
	cache.data[cacheKeyPrefix+saved.ID] = "{not json"
	if got, err := s.Get(ctx, saved.ID); err != nil || !strings.EqualFold(got.Plan.Client, "ana") {
		t.Errorf("corrupt cache entry should fall through, got %+v, %v", got, err)
	}
}
