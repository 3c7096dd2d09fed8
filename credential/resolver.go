// Package credential decides whether a usable API credential is available
// for a browser and where it came from.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mhpenta/mifoto"
	"github.com/mhpenta/mifoto/kvstore"
)

// StorageKey is the store key holding a user-entered API key.
const StorageKey = "mifoto_api_key"

// RejectedKey marks that the remote API rejected the browser's credential.
// While set, host and provisioned sources are skipped.
const RejectedKey = "mifoto_api_key_rejected"

var (
	ErrEmptyKey       = errors.New("API key cannot be empty")
	ErrNoHostSelector = errors.New("no host key selector configured")
)

// HostSelector is a capability offered by the hosting environment to manage
// the key on the user's behalf. The key value is never exposed.
type HostSelector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// EnvHostSelector treats the SDK's ambient environment variables as a key the
// host has already selected.
type EnvHostSelector struct {
	lookup func(string) (string, bool)
}

// NewEnvHostSelector reads the process environment.
func NewEnvHostSelector() *EnvHostSelector {
	return &EnvHostSelector{lookup: os.LookupEnv}
}

// HasSelectedKey reports whether GEMINI_API_KEY or GOOGLE_API_KEY is set.
func (s *EnvHostSelector) HasSelectedKey(context.Context) (bool, error) {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v, ok := s.lookup(name); ok && strings.TrimSpace(v) != "" {
			return true, nil
		}
	}
	return false, nil
}

// OpenSelectKey has nothing to open: the key is managed outside the process.
func (s *EnvHostSelector) OpenSelectKey(context.Context) error {
	return nil
}

// Status is the outcome of a resolution.
type Status struct {
	Usable     bool                    `json:"usable"`
	Source     mifoto.CredentialSource `json:"source,omitempty"`
	Credential mifoto.Credential       `json:"-"`
}

// Resolver resolves the credential for one browser. Sources are tried in a
// fixed order: host selection, provisioned key, stored user key.
type Resolver struct {
	store       kvstore.Store
	host        HostSelector
	provisioned string
	logger      *slog.Logger

	mu sync.Mutex
	// hostSelected records an optimistic host selection
	hostSelected bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHostSelector enables the host selection source.
func WithHostSelector(host HostSelector) Option {
	return func(r *Resolver) {
		r.host = host
	}
}

// WithProvisionedKey sets a key provisioned out of band, e.g. from config.
func WithProvisionedKey(key string) Option {
	return func(r *Resolver) {
		r.provisioned = strings.TrimSpace(key)
	}
}

// WithLogger sets a structured logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over a browser-scoped store.
func NewResolver(store kvstore.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the highest priority usable credential, or a Status with
// Usable false when none is available.
func (r *Resolver) Resolve(ctx context.Context) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, rejected, err := r.store.Get(ctx, RejectedKey)
	if err != nil {
		return Status{}, fmt.Errorf("read credential state: %w", err)
	}

	if !rejected {
		if r.host != nil {
			if r.hostSelected {
				return hostStatus(), nil
			}
			has, err := r.host.HasSelectedKey(ctx)
			if err != nil {
				r.logger.Warn("host key selector query failed", "error", err.Error())
			} else if has {
				return hostStatus(), nil
			}
		}

		if r.provisioned != "" {
			return Status{
				Usable:     true,
				Source:     mifoto.SourceProvisioned,
				Credential: mifoto.Credential{Value: r.provisioned, Source: mifoto.SourceProvisioned},
			}, nil
		}
	}

	stored, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		return Status{}, fmt.Errorf("read stored API key: %w", err)
	}
	if stored = strings.TrimSpace(stored); ok && stored != "" {
		return Status{
			Usable:     true,
			Source:     mifoto.SourceStored,
			Credential: mifoto.Credential{Value: stored, Source: mifoto.SourceStored},
		}, nil
	}

	return Status{}, nil
}

// Save persists a user-entered key. The key is usable as soon as Save returns.
func (r *Resolver) Save(ctx context.Context, key string) (Status, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Status{}, ErrEmptyKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Set(ctx, StorageKey, key); err != nil {
		return Status{}, fmt.Errorf("save API key: %w", err)
	}
	if err := r.store.Remove(ctx, RejectedKey); err != nil {
		return Status{}, fmt.Errorf("clear credential state: %w", err)
	}
	r.hostSelected = false

	r.logger.Info("API key saved")
	return Status{
		Usable:     true,
		Source:     mifoto.SourceStored,
		Credential: mifoto.Credential{Value: key, Source: mifoto.SourceStored},
	}, nil
}

// Invalidate forgets the stored key and any host selection.
func (r *Resolver) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hostSelected = false
	if err := r.store.Set(ctx, RejectedKey, "1"); err != nil {
		return fmt.Errorf("mark API key rejected: %w", err)
	}
	if err := r.store.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("remove API key: %w", err)
	}

	r.logger.Info("API key invalidated")
	return nil
}

// SelectWithHost opens the host's key selector and assumes a key was chosen
// once it returns. The host is not queried again.
func (r *Resolver) SelectWithHost(ctx context.Context) (Status, error) {
	if r.host == nil {
		return Status{}, ErrNoHostSelector
	}
	if err := r.host.OpenSelectKey(ctx); err != nil {
		return Status{}, fmt.Errorf("open host key selector: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Remove(ctx, RejectedKey); err != nil {
		return Status{}, fmt.Errorf("clear credential state: %w", err)
	}
	r.hostSelected = true

	return hostStatus(), nil
}

// HasHostSelector reports whether host selection is offered.
func (r *Resolver) HasHostSelector() bool {
	return r.host != nil
}

func hostStatus() Status {
	return Status{
		Usable:     true,
		Source:     mifoto.SourceHost,
		Credential: mifoto.Credential{Source: mifoto.SourceHost},
	}
}
