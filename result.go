package mifoto

// GeneratedImage is the image returned by a successful edit.
type GeneratedImage struct {
	// Data contains the raw image bytes
	Data []byte

	// MIMEType of the generated image
	MIMEType string
}

// EditResult holds the outcome of a successful edit request.
type EditResult struct {
	// ImageURL is the edited image as a data URI, ready for display.
	ImageURL string

	// TokensUsed is the total token count reported by the API (0 if unreported).
	TokensUsed int

	// Image holds the decoded bytes behind ImageURL.
	Image GeneratedImage

	// Model is the API model that served the request.
	Model string
}

// CredentialSource names where a usable credential came from.
type CredentialSource string

const (
	SourceNone        CredentialSource = ""
	SourceHost        CredentialSource = "host"
	SourceProvisioned CredentialSource = "provisioned"
	SourceStored      CredentialSource = "stored"
)

// Credential is the secret authorizing calls to the generation API.
//
// A credential from SourceHost carries no Value: the host manages the key and
// the provider falls back to its ambient configuration.
type Credential struct {
	Value  string
	Source CredentialSource
}

// Usable reports whether the credential can authorize a request.
func (c *Credential) Usable() bool {
	if c == nil {
		return false
	}
	return c.Source == SourceHost || c.Value != ""
}
