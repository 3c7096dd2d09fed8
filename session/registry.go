package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Factory builds the session for a browser seen for the first time.
type Factory func(browserID string) *Session

// Registry keeps one Session per browser and drops sessions idle for longer
// than the configured ttl.
type Registry struct {
	cache   *gocache.Cache
	factory Factory
	ttl     time.Duration

	mu sync.Mutex
}

// NewRegistry creates a registry. A zero ttl keeps sessions forever.
func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
	}
	return &Registry{
		cache:   gocache.New(expiration, cleanup),
		factory: factory,
		ttl:     expiration,
	}
}

// Get returns the browser's session, creating it if needed, and extends its
// lifetime.
func (r *Registry) Get(browserID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(browserID); ok {
		s := v.(*Session)
		r.cache.Set(browserID, s, r.ttl)
		return s
	}

	s := r.factory(browserID)
	r.cache.Set(browserID, s, r.ttl)
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
