package mifoto

import "context"

// ImageEditor is the core interface for image editing providers.
// Implement this interface to add support for new models or providers.
//
// The first model returned by Models() is considered the default model.
type ImageEditor interface {
	// Edit modifies an existing image based on a text instruction. The client
	// behind the call is built from cred, so a changed credential takes effect
	// on the next call.
	Edit(ctx context.Context, image InputImage, instruction string, cred Credential, cfg *EditConfig) (*EditResult, error)

	// Models returns the model definitions supported by this provider.
	// The first model in the list is the default.
	Models() []ModelInfo

	// Close releases any resources held by the editor.
	Close() error
}
