// Package llm provides the text generation clients and the content engine
// that drives them. Model tiers let each agent pick a cost/quality level
// without knowing the provider.
package llm

import "fmt"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap supporting agents: research notes, voice briefs
	TierLite ModelTier = "lite"
	// TierStandard is for review passes such as quality control
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form writing
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Supported providers
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider maps a config string onto a Provider. Empty means Gemini.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// Config holds the model configuration for a provider
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	BaseURL     string // OpenAI-compatible endpoints only
}

// DefaultConfig returns the default configuration for a provider
func DefaultConfig(p Provider) *Config {
	switch p {
	case ProviderOpenAI:
		return &Config{
			Provider: ProviderOpenAI,
			Models: map[ModelTier]string{
				TierLite:     "gpt-4o-mini",
				TierStandard: "gpt-4o-mini",
				TierAdvanced: "gpt-4o",
			},
			Temperature: 0.7,
		}
	default:
		return &Config{
			Provider: ProviderGemini,
			Models: map[ModelTier]string{
				TierLite:     "gemini-2.5-flash-lite",
				TierStandard: "gemini-2.5-flash",
				TierAdvanced: "gemini-2.5-pro",
			},
			Temperature: 0.7,
		}
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
