package mifoto

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyInstruction = errors.New("instruction cannot be empty")
	ErrEmptyImageData   = errors.New("image data cannot be empty")
	ErrInvalidMIMEType  = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge    = errors.New("image data exceeds maximum size")
)

// MaxImageSize is the maximum allowed image size in bytes (20MB)
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the supported image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidateInstruction validates a text instruction.
func ValidateInstruction(instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// ValidateInputImage validates an input image.
func ValidateInputImage(img InputImage) error {
	if len(img.Data) == 0 {
		return ErrEmptyImageData
	}

	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), MaxImageSize)
	}

	if img.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}

	if !ValidMIMETypes[img.MIMEType] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, img.MIMEType)
	}

	return nil
}
