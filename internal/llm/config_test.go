package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		provider Provider
		lite     string
		standard string
		advanced string
	}{
		{ProviderGemini, "gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"},
		{ProviderOpenAI, "gpt-4o-mini", "gpt-4o-mini", "gpt-4o"},
		{"", "gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			config := DefaultConfig(tt.provider)
			assert.Equal(t, tt.lite, config.GetModel(TierLite))
			assert.Equal(t, tt.standard, config.GetModel(TierStandard))
			assert.Equal(t, tt.advanced, config.GetModel(TierAdvanced))
		})
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	p, err = ParseProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("claude")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig(ProviderGemini)
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))
	// Other tiers should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(t.Context(), DefaultConfig(ProviderOpenAI), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	_, err = NewClient(t.Context(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewClient_OpenAI(t *testing.T) {
	cfg := DefaultConfig(ProviderOpenAI)
	cfg.BaseURL = "http://localhost:1234/v1"

	client, err := NewClient(t.Context(), cfg, "sk-test")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
	assert.Equal(t, "gpt-4o", client.GetModel(TierAdvanced))
	assert.NoError(t, client.Close())
}
