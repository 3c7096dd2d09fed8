package mifoto

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mhpenta/mifoto/ratelimiter"
)

const (
	ModelNanoBanana1 Model = "nano-banana-1" // Gemini 2.5 Flash Image
	ModelNanoBanana2 Model = "nano-banana-2" // Gemini 3 Pro Image

	ModelDefault Model = ModelNanoBanana1
)

// ErrModelNotRegistered is returned when a model has no registered provider.
var ErrModelNotRegistered = errors.New("model not registered")

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderGeminiAPI Provider = "gemini"
)

// Manager validates edit requests, paces them per credential and routes them
// to the provider serving the requested model.
type Manager struct {
	editor ImageEditor

	// Public model name to API model name
	modelMappings map[Model]string

	// Model info (per model)
	modelInfo map[Model]*ModelInfo

	// Default model to use when config.Model is empty
	defaultModel Model

	// Request pacing per credential; zero requestsPerMinute disables it
	requestsPerMinute int
	limiters          ratelimiter.Registry

	logger *slog.Logger

	mu sync.RWMutex
}

// Edit modifies an image based on a text instruction.
//
// A missing credential fails with a KindMissingCredential EditError before
// any request is issued.
func (m *Manager) Edit(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
	if err := ValidateInstruction(instruction); err != nil {
		return nil, err
	}
	if err := ValidateInputImage(image); err != nil {
		return nil, err
	}
	if !cred.Usable() {
		return nil, NewMissingCredential()
	}

	if config == nil {
		config = DefaultConfig()
	}

	model := m.resolveModel(config)
	start := time.Now()

	m.logger.Debug("starting image edit",
		"model", string(model),
		"credential_source", string(cred.Source),
		"instruction_length", len(instruction),
		"image_size", len(image.Data),
	)

	if err := m.checkRateLimit(ctx, cred, config); err != nil {
		m.logger.Warn("rate limit hit for edit",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	actualConfig, err := m.configForModel(model, config)
	if err != nil {
		m.logger.Error("failed to resolve model for edit",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	result, err := m.editor.Edit(ctx, image, instruction, cred, actualConfig)
	duration := time.Since(start)

	if err != nil {
		m.logger.Error("edit failed",
			"model", string(model),
			"duration_ms", duration.Milliseconds(),
			"kind", string(KindOf(err)),
			"error", err.Error(),
		)
		return nil, err
	}

	m.logger.Info("edit completed",
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
		"total_tokens", result.TokensUsed,
		"mime_type", result.Image.MIMEType,
	)

	return result, nil
}

// Upscale asks the model to improve resolution and detail without changing style.
func (m *Manager) Upscale(ctx context.Context, image InputImage, cred Credential, config *EditConfig) (*EditResult, error) {
	return m.Edit(ctx, image, UpscaleInstruction, cred, config)
}

// Models returns all registered model definitions.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.modelInfo))
	for _, info := range m.modelInfo {
		models = append(models, *info)
	}
	return models
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok
}

// DefaultModel returns the model used when a config names none.
func (m *Manager) DefaultModel() Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// RegisterModel registers a model served by the manager's editor.
func (m *Manager) RegisterModel(model Model, info *ModelInfo) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modelMappings[model] = info.APIModelName
	m.modelInfo[model] = info
	return m
}

// Close releases the editor's resources.
func (m *Manager) Close() error {
	if err := m.editor.Close(); err != nil {
		return fmt.Errorf("closing editor: %w", err)
	}
	return nil
}

// checkRateLimit paces requests per credential and optionally waits.
func (m *Manager) checkRateLimit(ctx context.Context, cred Credential, config *EditConfig) error {
	if m.requestsPerMinute <= 0 {
		return nil
	}

	rpm := m.requestsPerMinute
	limiter := m.limiters.GetOrCreate(credentialKey(cred), func() ratelimiter.Limiter {
		return ratelimiter.New(rpm)
	})

	if config.WaitOnRateLimit {
		if err := limiter.WaitAndConsume(ctx, 1, config.MaxWaitDuration); err != nil {
			return NewQuotaExceeded("", nil, err)
		}
		return nil
	}

	if !limiter.TryConsume(1) {
		wait := limiter.TimeUntilAvailable(1)
		return NewQuotaExceeded(formatRetryDelay(wait), nil, nil)
	}

	return nil
}

// resolveModel determines the public model to use.
func (m *Manager) resolveModel(config *EditConfig) Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if config != nil && config.Model != "" {
		return config.Model
	}
	return m.defaultModel
}

// configForModel returns a config copy naming the API model.
func (m *Manager) configForModel(model Model, config *EditConfig) (*EditConfig, error) {
	m.mu.RLock()
	apiName, ok := m.modelMappings[model]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	configCopy := *config
	configCopy.Model = Model(apiName)
	return &configCopy, nil
}

// credentialKey identifies a credential without keeping the secret around.
func credentialKey(cred Credential) string {
	if cred.Value == "" {
		return string(cred.Source)
	}
	sum := sha256.Sum256([]byte(cred.Value))
	return hex.EncodeToString(sum[:8])
}

func formatRetryDelay(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("%ds", int(math.Ceil(d.Seconds())))
}
