package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL applies when no TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "payment-plan:plan:"

// Cache is the key/value surface CachedStore needs. A miss returns
// ErrCacheMiss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ErrCacheMiss reports a key absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// CacheObserver is told about hits and misses.
type CacheObserver interface {
	IncrCacheHit()
	IncrCacheMiss()
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the redis server at addr.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Get returns the value stored under key.
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// Set stores value under key for ttl.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Del removes key.
func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// CachedStore serves Get from a cache and keeps it in step with writes.
// Cache failures are logged and fall through to the backing store.
type CachedStore struct {
	Store
	cache    Cache
	ttl      time.Duration
	observer CacheObserver
	logger   *zap.Logger
}

// NewCachedStore wraps backing with a read-through cache. observer may be nil.
func NewCachedStore(backing Store, cache Cache, ttl time.Duration, observer CacheObserver, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{Store: backing, cache: cache, ttl: ttl, observer: observer, logger: logger}
}

// Get returns the cached record, loading and caching it on a miss.
func (s *CachedStore) Get(ctx context.Context, id string) (Record, error) {
	key := cacheKeyPrefix + id

	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		var r Record
		if jsonErr := json.Unmarshal([]byte(raw), &r); jsonErr == nil {
			s.hit()
			return r, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("plan cache read failed",
			zap.String("op", "store.CachedStore.Get"),
			zap.String("id", id),
			zap.Error(err),
		)
	}
	s.miss()

	r, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	s.put(ctx, r)
	return r, nil
}

// Save stores c and primes the cache.
func (s *CachedStore) Save(ctx context.Context, c plan.Configuration) (Record, error) {
	r, err := s.Store.Save(ctx, c)
	if err != nil {
		return Record{}, err
	}
	s.put(ctx, r)
	return r, nil
}

// Update replaces the plan and refreshes the cache.
func (s *CachedStore) Update(ctx context.Context, id string, c plan.Configuration) (Record, error) {
	r, err := s.Store.Update(ctx, id, c)
	if err != nil {
		return Record{}, err
	}
	s.put(ctx, r)
	return r, nil
}

// Delete removes the plan and evicts it.
func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, cacheKeyPrefix+id); err != nil {
		s.logger.Warn("plan cache eviction failed",
			zap.String("op", "store.CachedStore.Delete"),
			zap.String("id", id),
			zap.Error(err),
		)
	}
	return nil
}

func (s *CachedStore) put(ctx context.Context, r Record) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+r.ID, string(data), s.ttl); err != nil {
		s.logger.Warn("plan cache write failed",
			zap.String("op", "store.CachedStore.put"),
			zap.String("id", r.ID),
			zap.Error(err),
		)
	}
}

func (s *CachedStore) hit() {
	if s.observer != nil {
		s.observer.IncrCacheHit()
	}
}

func (s *CachedStore) miss() {
	if s.observer != nil {
		s.observer.IncrCacheMiss()
	}
}
