package mifoto

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsImageEditing bool
	SupportsAspectRatio  bool

	MaxInputImages int
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	RequestsPerMinute int
	TokensPerDay      int // 0 = unlimited
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "nano-banana-1")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "gemini-2.5-flash-image")

	Capabilities ModelCapabilities

	// Free tier limits, shown to the user
	RateLimits RateLimits
}
