// Package images generates illustrations for posts.
package images

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonathan/content-engine/internal/prompts"
)

// DefaultStyle is used when a request supplies no style.
const DefaultStyle = "clean, modern, flat illustration"

// summaryLimit bounds the post text sent to the image model.
const summaryLimit = 800

// Generator produces an image for a post. settings may be nil. An empty url
// with a nil error means no image was produced.
type Generator interface {
	Generate(ctx context.Context, summary string, settings *Settings) (url string, err error)
}

// Settings are the per-request image options.
type Settings struct {
	Style string `json:"style,omitempty"`
	Size  string `json:"size,omitempty"`
}

// StyleOrDefault returns s.Style or DefaultStyle.
func (s *Settings) StyleOrDefault() string {
	if s == nil || strings.TrimSpace(s.Style) == "" {
		return DefaultStyle
	}
	return s.Style
}

// Sizes the images API accepts.
var sizes = map[string]openai.ImageGenerateParamsSize{
	"auto":      openai.ImageGenerateParamsSizeAuto,
	"256x256":   openai.ImageGenerateParamsSize256x256,
	"512x512":   openai.ImageGenerateParamsSize512x512,
	"1024x1024": openai.ImageGenerateParamsSize1024x1024,
	"1536x1024": openai.ImageGenerateParamsSize1536x1024,
	"1024x1536": openai.ImageGenerateParamsSize1024x1536,
	"1792x1024": openai.ImageGenerateParamsSize1792x1024,
	"1024x1792": openai.ImageGenerateParamsSize1024x1792,
}

// SizeOr returns the requested size when it is one the API accepts, else def.
func (s *Settings) SizeOr(def openai.ImageGenerateParamsSize) openai.ImageGenerateParamsSize {
	if s == nil {
		return def
	}
	if size, ok := sizes[strings.ToLower(strings.TrimSpace(s.Size))]; ok {
		return size
	}
	return def
}

// OpenAIGenerator implements Generator with the OpenAI images API.
type OpenAIGenerator struct {
	client  openai.Client
	model   openai.ImageModel
	size    openai.ImageGenerateParamsSize
	prompts *prompts.Resolver
}

// NewOpenAIGenerator creates a generator. model may be empty for dall-e-3.
func NewOpenAIGenerator(apiKey, model string, resolver *prompts.Resolver) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	if resolver == nil {
		resolver = prompts.NewResolver(nil)
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   openai.ImageModel(model),
		size:    openai.ImageGenerateParamsSize1024x1024,
		prompts: resolver,
	}, nil
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, summary string, settings *Settings) (string, error) {
	prompt, err := BuildPrompt(ctx, g.prompts, summary, settings.StyleOrDefault())
	if err != nil {
		return "", err
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          g.model,
		N:              openai.Int(1),
		Size:           settings.SizeOr(g.size),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].URL, nil
}

// BuildPrompt fills the image prompt template.
func BuildPrompt(ctx context.Context, resolver *prompts.Resolver, summary, style string) (string, error) {
	if strings.TrimSpace(style) == "" {
		style = DefaultStyle
	}
	return resolver.Render(ctx, "image", map[string]string{
		"Style":   style,
		"Summary": Summarize(summary, summaryLimit),
	})
}

// Summarize collapses whitespace and cuts text to limit runes on a word
// boundary.
func Summarize(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
