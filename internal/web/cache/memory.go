package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements an in-memory cache with TTL support
type MemoryCache struct {
	data   sync.Map
	config Config
	cancel context.CancelFunc
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates a new in-memory cache. A background goroutine
// drops expired items every sweep interval until Close.
func NewMemoryCache(config Config, sweep time.Duration) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		config: config,
		cancel: cancel,
	}

	if sweep > 0 {
		go mc.cleanupExpired(ctx, sweep)
	}

	return mc
}

// Get retrieves a value from the cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullKey := m.config.Prefix + key
	value, ok := m.data.Load(fullKey)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}

	item := value.(cacheItem)
	if item.expired(time.Now()) {
		m.data.Delete(fullKey)
		return nil, ErrCacheMiss{Key: key}
	}

	return item.value, nil
}

// Set stores a value in the cache with a TTL
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}

	m.data.Store(m.config.Prefix+key, item)
	return nil
}

// Delete removes a value from the cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Delete(m.config.Prefix + key)
	return nil
}

// Clear removes all values from the cache
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Range(func(key, _ interface{}) bool {
		m.data.Delete(key)
		return true
	})
	return nil
}

// Len returns the number of stored items, expired or not
func (m *MemoryCache) Len() int {
	n := 0
	m.data.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Close stops the background cleanup goroutine
func (m *MemoryCache) Close() error {
	m.cancel()
	return nil
}

func (m *MemoryCache) cleanupExpired(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.data.Range(func(key, value interface{}) bool {
				if value.(cacheItem).expired(now) {
					m.data.Delete(key)
				}
				return true
			})
		}
	}
}
