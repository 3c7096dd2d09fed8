package kvstore

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a session-lifetime store: values vanish after ttl of inactivity
// or when the process exits.
type Memory struct {
	cache *gocache.Cache
	ttl   time.Duration
}

var _ Store = (*Memory)(nil)

// NewMemory creates a memory store. A zero ttl keeps values until Close.
func NewMemory(ttl time.Duration) *Memory {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
	}
	return &Memory{
		cache: gocache.New(expiration, cleanup),
		ttl:   expiration,
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	// Touch: session storage lives as long as the session is active
	m.cache.Set(key, s, m.ttl)
	return s, true, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, m.ttl)
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Close releases the underlying cache.
func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
