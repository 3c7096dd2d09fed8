package ratelimiter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned by Get for an unknown key.
var ErrNotFound = errors.New("rate limiter not found")

// DefaultIdleTTL is how long an unused credential keeps its limiter.
const DefaultIdleTTL = 30 * time.Minute

// Registry manages limiters for different credentials.
type Registry interface {
	Get(key string) (Limiter, error)
	Set(key string, limiter Limiter)

	// GetOrCreate returns the limiter for key, creating it with newLimiter on first use.
	GetOrCreate(key string, newLimiter func() Limiter) Limiter
}

// cacheRegistry forgets limiters of credentials idle for longer than ttl.
// A forgotten limiter is recreated at full capacity.
type cacheRegistry struct {
	cache *gocache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

// NewRegistry creates an in-memory registry with DefaultIdleTTL.
func NewRegistry() Registry {
	return NewRegistryWithTTL(DefaultIdleTTL)
}

// NewRegistryWithTTL creates an in-memory registry evicting idle limiters.
func NewRegistryWithTTL(ttl time.Duration) Registry {
	return &cacheRegistry{
		cache: gocache.New(ttl, ttl),
		ttl:   ttl,
	}
}

func (r *cacheRegistry) Get(key string) (Limiter, error) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v.(Limiter), nil
}

func (r *cacheRegistry) Set(key string, limiter Limiter) {
	r.cache.Set(key, limiter, r.ttl)
}

func (r *cacheRegistry) GetOrCreate(key string, newLimiter func() Limiter) Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.cache.Get(key)
	if !ok {
		limiter = newLimiter()
	}
	r.cache.Set(key, limiter, r.ttl)
	return limiter.(Limiter)
}
