package mifoto

import (
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrInvalidDataURI is returned when a string is not a base64 data URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

// EncodeDataURI renders image bytes as a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a base64 data URI back into an InputImage.
func DecodeDataURI(uri string) (InputImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return InputImage{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return InputImage{}, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok || mimeType == "" {
		return InputImage{}, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InputImage{}, errors.Join(ErrInvalidDataURI, err)
	}
	return InputImage{Data: data, MIMEType: mimeType}, nil
}

// GetMIMEType guesses an image MIME type from a file name.
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// DetectMIMEType sniffs the MIME type from the image bytes, falling back to
// the declared type when sniffing is inconclusive.
func DetectMIMEType(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if ValidMIMETypes[sniffed] {
		return sniffed
	}
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	return strings.TrimSpace(declared)
}

// ExtensionFromMIME returns a file extension for common image MIME types.
func ExtensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
