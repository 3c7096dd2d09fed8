package mifoto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInstruction(t *testing.T) {
	assert.NoError(t, ValidateInstruction("add a retro filter"))
	assert.NoError(t, ValidateInstruction("  trailing spaces are fine  "))

	for _, blank := range []string{"", " ", "\n\t "} {
		assert.ErrorIs(t, ValidateInstruction(blank), ErrEmptyInstruction, "%q", blank)
	}
}

func TestValidateInputImage(t *testing.T) {
	photo := []byte("jpeg bytes")

	tests := []struct {
		name    string
		img     InputImage
		wantErr error
	}{
		{"jpeg", InputImage{Data: photo, MIMEType: "image/jpeg"}, nil},
		{"png", InputImage{Data: photo, MIMEType: "image/png"}, nil},
		{"webp", InputImage{Data: photo, MIMEType: "image/webp"}, nil},
		{"gif", InputImage{Data: photo, MIMEType: "image/gif"}, nil},
		{"no data", InputImage{MIMEType: "image/png"}, ErrEmptyImageData},
		{"no mime type", InputImage{Data: photo}, ErrInvalidMIMEType},
		{"not an image", InputImage{Data: photo, MIMEType: "application/pdf"}, ErrInvalidMIMEType},
		{"mime with params", InputImage{Data: photo, MIMEType: "image/png; charset=binary"}, ErrInvalidMIMEType},
		{"over the limit", InputImage{Data: make([]byte, MaxImageSize+1), MIMEType: "image/png"}, ErrImageTooLarge},
		{"at the limit", InputImage{Data: make([]byte, MaxImageSize), MIMEType: "image/png"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputImage(tt.img)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateInputImage_MessageNamesType(t *testing.T) {
	err := ValidateInputImage(InputImage{Data: []byte("x"), MIMEType: "image/bmp"})
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), "image/bmp"))
	}
}
