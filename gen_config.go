package mifoto

import (
	"time"
)

// Model represents a specific image editing model.
type Model string

// AspectRatio represents the aspect ratio requested for edited images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio3x2  AspectRatio = "3:2" // Photo landscape
	AspectRatio2x3  AspectRatio = "2:3" // Photo portrait
	AspectRatioAuto AspectRatio = ""    // Keep the source framing
)

// UpscaleInstruction is the built-in instruction used by the upscale action.
const UpscaleInstruction = "Increase the resolution, improve detail and image quality without changing the style."

// EditConfig holds configuration options for a single edit request.
type EditConfig struct {
	// Model to use for the edit (if empty, uses manager's default)
	Model Model

	// AspectRatio of the output image
	AspectRatio AspectRatio

	// WaitOnRateLimit, if true, causes the Manager to wait when request pacing
	// is enabled and the credential has no capacity left.
	// If false, a QuotaExceeded EditError is returned immediately.
	WaitOnRateLimit bool

	// MaxWaitDuration is the maximum time to wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// WithModel returns a copy of the config with the specified model.
func (c *EditConfig) WithModel(model Model) *EditConfig {
	if c == nil {
		return &EditConfig{Model: model}
	}
	cX := *c
	cX.Model = model
	return &cX
}

// DefaultConfig returns an EditConfig with sensible defaults. It names no
// model, so the manager's default applies.
func DefaultConfig() *EditConfig {
	return &EditConfig{
		AspectRatio: AspectRatioAuto,
	}
}

// InputImage is the photo sent along with an edit instruction.
type InputImage struct {
	// Data is the raw image bytes
	Data []byte

	// MIMEType of the image (e.g., "image/jpeg", "image/png")
	MIMEType string
}

func (a AspectRatio) String() string {
	return string(a)
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
