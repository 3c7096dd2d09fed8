package mifoto

import (
	"log/slog"

	"github.com/mhpenta/mifoto/ratelimiter"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultModel sets the default model used when config.Model is empty.
func WithDefaultModel(model Model) ManagerOption {
	return func(m *Manager) {
		if model != "" {
			m.defaultModel = model
		}
	}
}

// WithRequestsPerMinute enables per-credential request pacing.
func WithRequestsPerMinute(rpm int) ManagerOption {
	return func(m *Manager) {
		m.requestsPerMinute = rpm
	}
}

// WithRateLimiterRegistry swaps the in-memory limiter registry, e.g. for a
// distributed one.
func WithRateLimiterRegistry(registry ratelimiter.Registry) ManagerOption {
	return func(m *Manager) {
		m.limiters = registry
	}
}

// NewManager creates a Manager serving every model the editor declares.
//
// Example:
//
//	editor := gemini.New()
//	manager := mifoto.NewManager(editor,
//	    mifoto.WithLogger(slog.Default()),
//	    mifoto.WithDefaultModel(mifoto.ModelNanoBanana2),
//	)
//	result, err := manager.Edit(ctx, image, "add a retro filter", cred, nil)
func NewManager(editor ImageEditor, opts ...ManagerOption) *Manager {
	m := &Manager{
		editor:        editor,
		logger:        slog.Default(),
		modelMappings: make(map[Model]string),
		modelInfo:     make(map[Model]*ModelInfo),
		limiters:      ratelimiter.NewRegistry(),
		defaultModel:  ModelDefault,
	}

	models := editor.Models()
	for i := range models {
		info := &models[i]
		m.RegisterModel(Model(info.Name), info)
	}
	if len(models) > 0 {
		m.defaultModel = Model(models[0].Name)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}
