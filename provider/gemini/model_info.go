package gemini

import "github.com/mhpenta/mifoto"

// NanoBanana1Info is the model info for Gemini 2.5 Flash Image (nano-banana-1).
var NanoBanana1Info = mifoto.ModelInfo{
	Name:         "nano-banana-1",
	Provider:     mifoto.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana1,

	Capabilities: mifoto.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsAspectRatio:  true,
		MaxInputImages:       3,
	},

	// Free tier: 1M tokens per day, 60 requests per minute
	RateLimits: mifoto.RateLimits{
		RequestsPerMinute: 60,
		TokensPerDay:      1000000,
	},
}

// NanoBanana2Info is the model info for Gemini 3 Pro Image (nano-banana-2).
var NanoBanana2Info = mifoto.ModelInfo{
	Name:         "nano-banana-2",
	Provider:     mifoto.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana2,

	Capabilities: mifoto.ModelCapabilities{
		SupportsImageEditing: true,
		SupportsAspectRatio:  true,
		MaxInputImages:       14,
	},

	RateLimits: mifoto.RateLimits{
		RequestsPerMinute: 360,
	},
}
