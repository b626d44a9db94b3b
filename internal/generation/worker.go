package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/content-engine/internal/extraction"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/rendering"
	"github.com/jonathan/content-engine/internal/sanitize"
	"github.com/jonathan/content-engine/internal/validation"
)

// Engine is the text generation collaborator. *llm.Engine implements it.
type Engine interface {
	Generate(ctx context.Context, gc llm.GenerationContext) (string, error)
	GeneratePipeline(ctx context.Context, gc llm.GenerationContext) (*llm.PipelineOutput, error)
}

// Profiles resolves personality ids to voice descriptions. *db.DB
// implements it.
type Profiles interface {
	AuthorVoice(ctx context.Context, id string) (string, error)
	BrandVoice(ctx context.Context, id string) (string, error)
}

// ProgressFunc receives agent lifecycle events. It may be nil.
type ProgressFunc func(llm.AgentEvent)

// DefaultStructuredPlatforms publish a separate title, excerpt and permalink.
var DefaultStructuredPlatforms = []string{"blog", "wordpress", "website", "medium"}

// Worker runs generation requests.
type Worker struct {
	engine     Engine
	profiles   Profiles
	structured map[string]bool
}

// NewWorker creates a worker. profiles may be nil, in which case the
// author-voice path is never taken. structuredPlatforms nil means
// DefaultStructuredPlatforms.
func NewWorker(engine Engine, profiles Profiles, structuredPlatforms []string) *Worker {
	if structuredPlatforms == nil {
		structuredPlatforms = DefaultStructuredPlatforms
	}
	structured := make(map[string]bool, len(structuredPlatforms))
	for _, p := range structuredPlatforms {
		structured[normalizePlatform(p)] = true
	}
	return &Worker{engine: engine, profiles: profiles, structured: structured}
}

// RequiresStructuredFields reports whether platform gets field extraction.
func (w *Worker) RequiresStructuredFields(platform string) bool {
	return w.structured[normalizePlatform(platform)]
}

// Generate runs one request. The ctx deadline is the task's time budget; it
// is checked before every call into the engine.
//
// A failure of the author-voice path is logged and recovered by the
// multi-agent pipeline. A pipeline failure is returned as *PipelineError.
func (w *Worker) Generate(ctx context.Context, req Request, progress ProgressFunc) (*Output, error) {
	if err := CheckDeadline(ctx); err != nil {
		return nil, err
	}

	gc, err := w.generationContext(ctx, req, progress)
	if err != nil {
		return nil, err
	}

	if w.usePrimary(req) {
		out, err := w.primary(ctx, req, gc)
		if err == nil {
			return out, nil
		}
		if dl := CheckDeadline(ctx); dl != nil {
			return nil, dl
		}
		log.Printf("[worker] author voice generation failed for %s, falling back to pipeline: %v", req.Platform, err)
	}

	return w.fallback(ctx, req, gc)
}

func (w *Worker) usePrimary(req Request) bool {
	return req.UseAuthorVoice && strings.TrimSpace(req.AuthorPersonalityID) != "" && w.profiles != nil
}

func (w *Worker) primary(ctx context.Context, req Request, gc llm.GenerationContext) (*Output, error) {
	voice, err := w.profiles.AuthorVoice(ctx, req.AuthorPersonalityID)
	if err != nil {
		return nil, &ProfileError{ID: req.AuthorPersonalityID, Cause: err}
	}
	gc.AuthorVoice = voice

	if err := CheckDeadline(ctx); err != nil {
		return nil, err
	}
	raw, err := w.engine.Generate(ctx, gc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("author voice generation returned no content")
	}
	return w.finish(req, raw, PathAuthorVoice)
}

func (w *Worker) fallback(ctx context.Context, req Request, gc llm.GenerationContext) (*Output, error) {
	if err := CheckDeadline(ctx); err != nil {
		return nil, err
	}

	po, err := w.engine.GeneratePipeline(ctx, gc)
	if err != nil {
		if dl := CheckDeadline(ctx); dl != nil {
			return nil, dl
		}
		return nil, &PipelineError{Message: err.Error(), Cause: err}
	}

	raw := PipelineBody(po)
	if raw == "" {
		return nil, &PipelineError{Message: "pipeline returned no content"}
	}
	out, err := w.finish(req, raw, PathPipeline)
	if err != nil {
		return nil, &PipelineError{Message: err.Error(), Cause: err}
	}
	return out, nil
}

// PipelineBody returns the first non-empty of final content, content,
// quality control output and raw writing.
func PipelineBody(po *llm.PipelineOutput) string {
	if po == nil {
		return ""
	}
	for _, candidate := range []string{po.FinalContent, po.Content, po.QualityControl, po.Writing} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// finish extracts fields when the platform needs them and sanitizes the body.
// The persisted body is always sanitizer output, never raw model text. A body
// that sanitizes to nothing is an error.
func (w *Worker) finish(req Request, raw string, path Path) (*Output, error) {
	out := &Output{Path: path}

	source := raw
	if w.RequiresStructuredFields(req.Platform) {
		fields := extraction.Extract(raw)
		switch {
		case !fields.HasAny():
			log.Printf("[worker] warning: no structured fields found in %s output", req.Platform)
		case fields.FormatDetected == extraction.FormatMarkdownFallback || fields.FormatDetected == extraction.FormatHeuristic:
			log.Printf("[worker] warning: %s output parsed with %s format", req.Platform, fields.FormatDetected)
		}
		if fields.CleanedBody != "" {
			source = fields.CleanedBody
		}
		out.PostTitle = fields.PostTitle
		out.PostExcerpt = fields.PostExcerpt
		out.Permalink = fields.Permalink
		out.Title = fields.PostTitle
		out.FormatDetected = fields.FormatDetected
	}
	out.Content = sanitize.Body(source)
	if out.Content == "" {
		return nil, errEmptyBody
	}

	if rendering.WantsHTML(req.Platform) {
		html, err := rendering.MarkdownToHTML(out.Content)
		if err != nil {
			log.Printf("[worker] failed to render %s html: %v", req.Platform, err)
		} else {
			out.ContentHTML = html
		}
	}

	if req.UseValidation {
		rules := validation.RulesFor(req.Platform, req.PlatformSettings)
		out.Validation = validation.Validate(req.Platform, out.PostTitle, out.Content, rules)
	}
	return out, nil
}

var errEmptyBody = errors.New("generated content was empty after removing structured fields")

func (w *Worker) generationContext(ctx context.Context, req Request, progress ProgressFunc) (llm.GenerationContext, error) {
	gc := llm.GenerationContext{
		Platform:             req.Platform,
		Week:                 req.Week,
		Day:                  req.Day,
		ParentIdea:           req.ParentIdea,
		QueueItems:           req.ContentQueueItems,
		PlatformNotes:        platformNotes(req.PlatformSettings),
		StructuredOutput:     w.RequiresStructuredFields(req.Platform),
		CornerstoneContent:   req.CornerstoneContent,
		CornerstonePermalink: req.CornerstonePermalink,
		CornerstoneTitle:     req.CornerstonePostTitle,
		OnAgent:              progress,
	}

	if req.BrandPersonalityID != "" && w.profiles != nil {
		voice, err := w.profiles.BrandVoice(ctx, req.BrandPersonalityID)
		if err != nil {
			if dl := CheckDeadline(ctx); dl != nil {
				return gc, dl
			}
			log.Printf("[worker] brand personality %s unavailable, continuing without it: %v", req.BrandPersonalityID, err)
		} else {
			gc.BrandVoice = voice
		}
	}
	return gc, nil
}

// platformNotes renders platform settings as prompt guidance.
func platformNotes(settings map[string]any) string {
	if len(settings) == 0 {
		return ""
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %v\n", strings.ReplaceAll(k, "_", " "), settings[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CheckDeadline returns ErrDeadlineExceeded once ctx's deadline has passed,
// or the cancellation cause if ctx was cancelled for another reason.
func CheckDeadline(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return ErrDeadlineExceeded
	}
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrDeadlineExceeded
	default:
		return fmt.Errorf("generation cancelled: %w", err)
	}
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
