// Package generation executes a single content generation request: the
// author-voice primary path, the multi-agent fallback, field extraction and
// body sanitization.
package generation

import (
	"github.com/jonathan/content-engine/internal/extraction"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/validation"
)

// Request is the input to Worker.Generate.
type Request struct {
	Platform            string          `json:"platform" validate:"required,max=50"`
	Week                int             `json:"week" validate:"min=1"`
	Day                 int             `json:"day" validate:"min=1,max=7"`
	ParentIdea          string          `json:"parent_idea,omitempty"`
	ContentQueueItems   []llm.QueueItem `json:"content_queue_items,omitempty"`
	AuthorPersonalityID string          `json:"author_personality_id,omitempty"`
	BrandPersonalityID  string          `json:"brand_personality_id,omitempty"`
	PlatformSettings    map[string]any  `json:"platform_settings,omitempty"`
	UseAuthorVoice      bool            `json:"use_author_voice"`
	UseValidation       bool            `json:"use_validation"`

	CornerstoneContent   string `json:"cornerstone_content,omitempty"`
	CornerstonePermalink string `json:"cornerstone_permalink,omitempty"`
	CornerstonePostTitle string `json:"cornerstone_post_title,omitempty"`
}

// Path names which generation path produced an output.
type Path string

// Generation paths
const (
	PathAuthorVoice Path = "author_voice"
	PathPipeline    Path = "pipeline"
)

// Output is the success variant of a generation.
type Output struct {
	Content        string             `json:"content"`
	ContentHTML    string             `json:"content_html,omitempty"`
	Title          string             `json:"title,omitempty"`
	PostTitle      string             `json:"post_title,omitempty"`
	PostExcerpt    string             `json:"post_excerpt,omitempty"`
	Permalink      string             `json:"permalink,omitempty"`
	FormatDetected extraction.Format  `json:"format_detected,omitempty"`
	Validation     *validation.Report `json:"validation,omitempty"`
	Path           Path               `json:"generation_path"`
}

// Result statuses
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GenerationResult is the wire form of a generation: exactly one of Data and
// Error is set.
type GenerationResult struct {
	Status string  `json:"status"`
	Data   *Output `json:"data,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// NewResult converts the (output, error) pair returned by Worker.Generate.
func NewResult(out *Output, err error) GenerationResult {
	if err != nil {
		return GenerationResult{Status: ResultError, Error: err.Error()}
	}
	return GenerationResult{Status: ResultSuccess, Data: out}
}
