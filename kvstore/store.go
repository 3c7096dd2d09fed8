// Package kvstore persists small per-browser values: the quota record and
// the user-entered credential. Every call reads or writes a single key.
package kvstore

import (
	"context"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	Close() error
}

// Scoped returns a view of store whose keys are namespaced by scope, so that
// each browser sees only its own values.
func Scoped(store Store, scope string) Store {
	return &scoped{store: store, prefix: scope + ":"}
}

type scoped struct {
	store  Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.prefix+key)
}

// Close is a no-op: the underlying store is shared.
func (s *scoped) Close() error {
	return nil
}
