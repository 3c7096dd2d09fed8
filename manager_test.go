package mifoto

import (
	"context"
	"errors"
	"testing"

	"github.com/mhpenta/mifoto/ratelimiter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Edit_MissingCredential(t *testing.T) {
	called := false
	mock := &MockImageEditor{
		ModelsFunc: testModels,
		EditFunc: func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
			called = true
			return &EditResult{}, nil
		},
	}
	manager := NewManager(mock)

	_, err := manager.Edit(context.Background(), testImage, "add a retro filter", Credential{}, nil)

	require.Error(t, err)
	assert.Equal(t, KindMissingCredential, KindOf(err))
	assert.False(t, called, "no request may be issued without a credential")
}

func TestManager_Edit_RoutesToAPIModel(t *testing.T) {
	var gotModel Model
	var gotCred Credential
	mock := &MockImageEditor{
		ModelsFunc: testModels,
		EditFunc: func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
			gotModel = config.Model
			gotCred = cred
			return &EditResult{ImageURL: "data:image/png;base64,AA==", TokensUsed: 10}, nil
		},
	}
	manager := NewManager(mock)
	cred := Credential{Value: "key-1", Source: SourceStored}

	result, err := manager.Edit(context.Background(), testImage, "add a retro filter", cred, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, result.TokensUsed)
	assert.Equal(t, Model("test-model-api"), gotModel, "first model is the default")
	assert.Equal(t, cred, gotCred)

	_, err = manager.Edit(context.Background(), testImage, "add a retro filter", cred, &EditConfig{Model: "other-model"})
	require.NoError(t, err)
	assert.Equal(t, Model("other-model-api"), gotModel)
}

func TestManager_Edit_UnknownModel(t *testing.T) {
	manager := NewManager(&MockImageEditor{ModelsFunc: testModels})

	_, err := manager.Edit(context.Background(), testImage, "x", Credential{Value: "k", Source: SourceStored}, &EditConfig{Model: "missing"})
	assert.ErrorIs(t, err, ErrModelNotRegistered)
}

func TestManager_Edit_ValidatesInput(t *testing.T) {
	manager := NewManager(&MockImageEditor{ModelsFunc: testModels})
	cred := Credential{Value: "k", Source: SourceStored}

	_, err := manager.Edit(context.Background(), testImage, "   ", cred, nil)
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	_, err = manager.Edit(context.Background(), InputImage{}, "x", cred, nil)
	assert.ErrorIs(t, err, ErrEmptyImageData)
}

func TestManager_Edit_PropagatesClassifiedError(t *testing.T) {
	mock := &MockImageEditor{
		ModelsFunc: testModels,
		EditFunc: func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
			return nil, NewSafetyRejected()
		},
	}
	manager := NewManager(mock)

	_, err := manager.Edit(context.Background(), testImage, "x", Credential{Source: SourceHost}, nil)
	var editErr *EditError
	require.True(t, errors.As(err, &editErr))
	assert.Equal(t, KindSafetyRejected, editErr.Kind)
}

func TestManager_Edit_RequestPacing(t *testing.T) {
	mock := &MockImageEditor{ModelsFunc: testModels}
	manager := NewManager(mock, WithRequestsPerMinute(1))
	ctx := context.Background()

	credA := Credential{Value: "key-a", Source: SourceStored}
	credB := Credential{Value: "key-b", Source: SourceStored}

	_, err := manager.Edit(ctx, testImage, "x", credA, nil)
	require.NoError(t, err)

	_, err = manager.Edit(ctx, testImage, "x", credA, nil)
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
	var editErr *EditError
	require.ErrorAs(t, err, &editErr)
	assert.NotEmpty(t, editErr.RetryDelay)

	// Pacing is per credential
	_, err = manager.Edit(ctx, testImage, "x", credB, nil)
	assert.NoError(t, err)
}

func TestManager_Upscale_UsesFixedInstruction(t *testing.T) {
	var got string
	mock := &MockImageEditor{
		ModelsFunc: testModels,
		EditFunc: func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
			got = instruction
			return &EditResult{}, nil
		},
	}
	manager := NewManager(mock)

	_, err := manager.Upscale(context.Background(), testImage, Credential{Source: SourceHost}, nil)
	require.NoError(t, err)
	assert.Equal(t, UpscaleInstruction, got)
}

func TestManager_WithDefaultModel(t *testing.T) {
	manager := NewManager(&MockImageEditor{ModelsFunc: testModels}, WithDefaultModel("other-model"))
	assert.Equal(t, Model("other-model"), manager.DefaultModel())
	assert.Len(t, manager.Models(), 2)
}

func TestManager_SharedLimiterRegistry(t *testing.T) {
	registry := ratelimiter.NewRegistry()
	first := NewManager(&MockImageEditor{ModelsFunc: testModels}, WithRequestsPerMinute(1), WithRateLimiterRegistry(registry))
	second := NewManager(&MockImageEditor{ModelsFunc: testModels}, WithRequestsPerMinute(1), WithRateLimiterRegistry(registry))
	cred := Credential{Value: "shared-key", Source: SourceProvisioned}

	_, err := first.Edit(context.Background(), testImage, "x", cred, nil)
	require.NoError(t, err)

	_, err = second.Edit(context.Background(), testImage, "x", cred, nil)
	assert.True(t, IsQuotaExceeded(err), "both managers draw from the same bucket")
}

func TestManager_Edit_ConfigModelOverridesDefault(t *testing.T) {
	var gotModel Model
	mock := &MockImageEditor{
		ModelsFunc: testModels,
		EditFunc: func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
			gotModel = config.Model
			return &EditResult{}, nil
		},
	}
	manager := NewManager(mock)

	cfg := DefaultConfig().WithModel("other-model")
	_, err := manager.Edit(context.Background(), testImage, "x", Credential{Source: SourceHost}, cfg)
	require.NoError(t, err)
	assert.Equal(t, Model("other-model-api"), gotModel)
	assert.Empty(t, DefaultConfig().Model, "WithModel returns a copy")
}
