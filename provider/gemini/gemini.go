// Package gemini provides an ImageEditor implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// A client is created for every request from the credential passed with it,
// so replacing or invalidating a credential never leaves a stale client behind.
package gemini

import (
	"context"
	"fmt"

	"github.com/mhpenta/mifoto"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	// APIModelNanoBanana1 is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana1 = "gemini-2.5-flash-image"

	// APIModelNanoBanana2 is the actual API name for Gemini 3 Pro Image
	APIModelNanoBanana2 = "gemini-3-pro-image-preview"
)

// ContentGenerator is the part of the genai Models service the editor needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory builds a ContentGenerator for one request. An empty apiKey
// lets the SDK read GEMINI_API_KEY or GOOGLE_API_KEY.
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// Editor implements ImageEditor using Google's Gemini API.
type Editor struct {
	newClient ClientFactory
	baseURL   string
}

// Ensure Editor implements the interface.
var _ mifoto.ImageEditor = (*Editor)(nil)

// Option configures the Editor.
type Option func(*Editor)

// WithClientFactory replaces how per-request clients are built.
func WithClientFactory(factory ClientFactory) Option {
	return func(e *Editor) {
		e.newClient = factory
	}
}

// WithBaseURL points the SDK at a custom endpoint.
func WithBaseURL(baseURL string) Option {
	return func(e *Editor) {
		e.baseURL = baseURL
	}
}

// New creates a new Editor.
func New(opts ...Option) *Editor {
	e := &Editor{}
	e.newClient = e.sdkClient
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) sdkClient(ctx context.Context, apiKey string) (ContentGenerator, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	}
	if e.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: e.baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// Edit modifies an existing image based on a text instruction.
func (e *Editor) Edit(ctx context.Context, image mifoto.InputImage, instruction string, cred mifoto.Credential, config *mifoto.EditConfig) (*mifoto.EditResult, error) {
	if err := mifoto.ValidateInstruction(instruction); err != nil {
		return nil, err
	}
	if err := mifoto.ValidateInputImage(image); err != nil {
		return nil, err
	}
	if !cred.Usable() {
		return nil, mifoto.NewMissingCredential()
	}

	if config == nil {
		config = mifoto.DefaultConfig()
	}

	modelName := e.resolveModel(config)

	client, err := e.newClient(ctx, cred.Value)
	if err != nil {
		if cred.Value == "" {
			missing := mifoto.NewMissingCredential()
			missing.Err = err
			return nil, missing
		}
		return nil, mifoto.NewUnknown(fmt.Errorf("failed to create Gemini client: %w", err))
	}

	// Image first, then the instruction
	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				Data:     image.Data,
				MIMEType: image.MIMEType,
			},
		},
		{Text: instruction},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, modelName, contents, buildGenerateContentConfig(config))
	if err != nil {
		return nil, ClassifyError(err)
	}

	result, err := ParseResponse(resp)
	if err != nil {
		return nil, err
	}
	result.Model = modelName

	return result, nil
}

// Models returns the model definitions supported by this provider.
// The first model (NanoBanana1) is the default.
func (e *Editor) Models() []mifoto.ModelInfo {
	return []mifoto.ModelInfo{
		NanoBanana1Info,
		NanoBanana2Info,
	}
}

// Close releases any resources held by the editor.
func (e *Editor) Close() error {
	// Clients live for a single request; nothing to release
	return nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (e *Editor) resolveModel(config *mifoto.EditConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	return e.Models()[0].APIModelName
}

// buildGenerateContentConfig requests image-only output.
func buildGenerateContentConfig(config *mifoto.EditConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}

	if config.AspectRatio != mifoto.AspectRatioAuto {
		genConfig.ImageConfig = &genai.ImageConfig{
			AspectRatio: config.AspectRatio.String(),
		}
	}

	return genConfig
}
