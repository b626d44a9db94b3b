package llm

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-engine/internal/prompts"
)

// Agent names reported while generating.
const (
	AgentAuthorVoice     = "author_voice_writer"
	AgentResearcher      = "content_researcher"
	AgentBrandStrategist = "brand_strategist"
	AgentWriter          = "content_writer"
	AgentQualityControl  = "quality_control"
)

// Agent event statuses.
const (
	AgentStarted   = "started"
	AgentCompleted = "completed"
	AgentFailed    = "failed"
)

// AgentEvent is emitted as each agent starts and finishes.
type AgentEvent struct {
	Agent  string
	Task   string
	Status string
	Err    error
}

// QueueItem is a piece of source material queued for a campaign.
type QueueItem struct {
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
}

// GenerationContext is everything the engine needs to write one post.
type GenerationContext struct {
	Platform      string
	Week          int
	Day           int
	ParentIdea    string
	QueueItems    []QueueItem
	AuthorVoice   string
	BrandVoice    string
	PlatformNotes string
	// StructuredOutput asks for labeled title/excerpt/permalink fields.
	StructuredOutput bool

	CornerstoneContent   string
	CornerstonePermalink string
	CornerstoneTitle     string

	// OnAgent is optional.
	OnAgent func(AgentEvent)
}

// PipelineOutput holds every stage output of the multi-agent pipeline.
type PipelineOutput struct {
	Research       string            `json:"research,omitempty"`
	BrandBrief     string            `json:"brand_brief,omitempty"`
	Writing        string            `json:"writing,omitempty"`
	QualityControl string            `json:"quality_control,omitempty"`
	Content        string            `json:"content,omitempty"`
	FinalContent   string            `json:"final_content,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Engine generates posts either in one shot or through a chain of agents.
type Engine struct {
	client  Client
	prompts *prompts.Resolver
}

// NewEngine creates an engine over an LLM client.
func NewEngine(client Client, resolver *prompts.Resolver) *Engine {
	if resolver == nil {
		resolver = prompts.NewResolver(nil)
	}
	return &Engine{client: client, prompts: resolver}
}

// Generate writes the post with a single call in the author's voice.
func (e *Engine) Generate(ctx context.Context, gc GenerationContext) (string, error) {
	data, err := e.promptData(ctx, gc)
	if err != nil {
		return "", err
	}

	var text string
	err = e.runAgent(ctx, gc, AgentAuthorVoice, "Writing in the author's voice", func() error {
		prompt, err := e.prompts.Render(ctx, "single_shot", data)
		if err != nil {
			return err
		}
		raw, err := e.client.GenerateContent(ctx, prompt, TierAdvanced)
		if err != nil {
			return err
		}
		text = CleanCodeFence(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return text, nil
}

// GeneratePipeline runs research and brand agents concurrently, then the
// writer, then quality control. Quality control failures are not fatal.
func (e *Engine) GeneratePipeline(ctx context.Context, gc GenerationContext) (*PipelineOutput, error) {
	data, err := e.promptData(ctx, gc)
	if err != nil {
		return nil, err
	}

	out := &PipelineOutput{Metadata: map[string]string{}}
	started := time.Now()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.runAgent(gCtx, gc, AgentResearcher, "Researching key points", func() error {
			prompt, err := e.prompts.Render(gCtx, "content_researcher", data)
			if err != nil {
				return err
			}
			out.Research, err = e.client.GenerateContent(gCtx, prompt, TierLite)
			return err
		})
	})
	if strings.TrimSpace(gc.BrandVoice) != "" {
		g.Go(func() error {
			err := e.runAgent(gCtx, gc, AgentBrandStrategist, "Preparing voice brief", func() error {
				prompt, err := e.prompts.Render(gCtx, "brand_strategist", data)
				if err != nil {
					return err
				}
				out.BrandBrief, err = e.client.GenerateContent(gCtx, prompt, TierLite)
				return err
			})
			if err != nil {
				log.Printf("[engine] brand strategist failed, continuing without voice brief: %v", err)
				out.BrandBrief = gc.BrandVoice
			}
			return nil
		})
	} else {
		out.BrandBrief = "No brand guidelines supplied; use a clear, friendly, professional tone."
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("research stage failed: %w", err)
	}

	data["Research"] = out.Research
	data["BrandBrief"] = out.BrandBrief

	err = e.runAgent(ctx, gc, AgentWriter, "Writing draft", func() error {
		prompt, err := e.prompts.Render(ctx, "content_writer", data)
		if err != nil {
			return err
		}
		out.Writing, err = e.client.GenerateContent(ctx, prompt, TierAdvanced)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("writing stage failed: %w", err)
	}
	out.Content = CleanCodeFence(out.Writing)

	data["Draft"] = out.Content
	err = e.runAgent(ctx, gc, AgentQualityControl, "Reviewing draft", func() error {
		prompt, err := e.prompts.Render(ctx, "quality_control", data)
		if err != nil {
			return err
		}
		out.QualityControl, err = e.client.GenerateContent(ctx, prompt, TierStandard)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[engine] quality control failed, keeping writer draft: %v", err)
	} else {
		out.FinalContent = CleanCodeFence(out.QualityControl)
	}

	out.Metadata["writer_model"] = e.client.GetModel(TierAdvanced)
	out.Metadata["review_model"] = e.client.GetModel(TierStandard)
	out.Metadata["duration_ms"] = strconv.FormatInt(time.Since(started).Milliseconds(), 10)
	return out, nil
}

func (e *Engine) runAgent(ctx context.Context, gc GenerationContext, agent, task string, fn func() error) error {
	emit(gc, AgentEvent{Agent: agent, Task: task, Status: AgentStarted})
	if err := ctx.Err(); err != nil {
		emit(gc, AgentEvent{Agent: agent, Task: task, Status: AgentFailed, Err: err})
		return err
	}
	if err := fn(); err != nil {
		emit(gc, AgentEvent{Agent: agent, Task: task, Status: AgentFailed, Err: err})
		return err
	}
	emit(gc, AgentEvent{Agent: agent, Task: task, Status: AgentCompleted})
	return nil
}

func emit(gc GenerationContext, ev AgentEvent) {
	if gc.OnAgent != nil {
		gc.OnAgent(ev)
	}
}

// promptData assembles the placeholder values shared by every prompt.
func (e *Engine) promptData(ctx context.Context, gc GenerationContext) (map[string]string, error) {
	data := map[string]string{
		"Platform":      gc.Platform,
		"Week":          strconv.Itoa(gc.Week),
		"Day":           strconv.Itoa(gc.Day),
		"ParentIdea":    orNone(gc.ParentIdea),
		"QueueItems":    formatQueueItems(gc.QueueItems),
		"AuthorVoice":   orNone(gc.AuthorVoice),
		"BrandVoice":    orNone(gc.BrandVoice),
		"PlatformNotes": orNone(gc.PlatformNotes),
	}

	if gc.StructuredOutput {
		tmpl, err := e.prompts.Template(ctx, "structured_format")
		if err != nil {
			return nil, err
		}
		data["FormatInstructions"] = tmpl
	}

	if gc.CornerstoneContent != "" || gc.CornerstonePermalink != "" {
		linkback, err := e.prompts.Render(ctx, "linkback", map[string]string{
			"CornerstoneTitle":   orNone(gc.CornerstoneTitle),
			"CornerstoneURL":     cornerstoneURL(gc.CornerstonePermalink),
			"CornerstoneSummary": summarize(gc.CornerstoneContent, 600),
		})
		if err != nil {
			return nil, err
		}
		data["Linkback"] = linkback
	}

	// Placeholders that are filled later or not at all must not leak.
	for _, key := range []string{"FormatInstructions", "Linkback", "Research", "BrandBrief", "Draft"} {
		if _, ok := data[key]; !ok {
			data[key] = ""
		}
	}
	return data, nil
}

func formatQueueItems(items []QueueItem) string {
	if len(items) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item.Title)
		if item.Summary != "" {
			sb.WriteString(": ")
			sb.WriteString(item.Summary)
		}
		if item.URL != "" {
			sb.WriteString(" (")
			sb.WriteString(item.URL)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func cornerstoneURL(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") || strings.HasPrefix(permalink, "/") {
		return permalink
	}
	return "/" + permalink
}

func summarize(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
