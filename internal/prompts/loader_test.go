package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(ContentFile, "content_writer")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Research}}")
	assert.Contains(t, prompt, "{{.Platform}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(ContentFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, MustGet(ContentFile, "single_shot"))
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "replaces every placeholder",
			template: "Write a {{.Platform}} post for week {{.Week}}, {{.Platform}} style",
			data:     map[string]string{"Platform": "blog", "Week": "2"},
			want:     "Write a blog post for week 2, blog style",
		},
		{
			name:     "no placeholders",
			template: "No placeholders here",
			data:     map[string]string{"Key": "Value"},
			want:     "No placeholders here",
		},
		{
			name:     "unknown placeholder remains",
			template: "Hello {{.Name}}",
			data:     map[string]string{},
			want:     "Hello {{.Name}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(ContentFile)
	require.NoError(t, err)
	for _, name := range []string{
		"single_shot", "content_researcher", "brand_strategist", "content_writer",
		"quality_control", "structured_format", "linkback", "image",
	} {
		assert.Contains(t, keys, name)
	}
	assert.IsIncreasing(t, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get(ContentFile, "linkback")
	require.NoError(t, err)
	prompt2, err := Get(ContentFile, "linkback")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
