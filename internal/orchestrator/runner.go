package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/content-engine/internal/content"
	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/images"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/tasks"
)

// Generator runs one generation request. *generation.Worker implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request, progress generation.ProgressFunc) (*generation.Output, error)
}

// Runner drives tasks through generation, persistence and image steps,
// writing progress into the registry.
type Runner struct {
	worker   Generator
	store    content.Store
	images   images.Generator
	registry *tasks.Registry
}

// NewRunner creates a runner. imageGen may be nil to disable images.
func NewRunner(worker Generator, store content.Store, imageGen images.Generator, registry *tasks.Registry) *Runner {
	return &Runner{worker: worker, store: store, images: imageGen, registry: registry}
}

// RunDay generates items strictly in order. The first failure, including
// an expired deadline, stops the batch: later items are never attempted and
// items_done stays at the number of items that succeeded.
//
// A cornerstone item's output is passed to every later secondary item. If a
// batch has several cornerstones, each one replaces the previous.
func (r *Runner) RunDay(ctx context.Context, taskID string, items []Item, shared Shared) error {
	total := len(items)
	r.update(taskID, tasks.Update{}.
		WithStatus(tasks.StatusInProgress).
		WithCurrentTask(fmt.Sprintf("Generating %d items for week %d day %d", total, shared.Week, shared.Day)))

	var (
		cornerstone     Cornerstone
		haveCornerstone bool
	)

	for i, item := range items {
		if err := generation.CheckDeadline(ctx); err != nil {
			return r.fail(taskID, err)
		}
		r.update(taskID, tasks.Update{}.WithCurrentTask(fmt.Sprintf("Item %d/%d: %s %s", i+1, total, item.Platform, item.Type)))

		req := itemRequest(item, shared)
		if item.Type == ItemSecondary && haveCornerstone {
			req = cornerstone.apply(req)
		}

		out, err := r.worker.Generate(ctx, req, r.progress(taskID, item.ID))
		if err != nil {
			log.Printf("[batch] task %s item %s (%s) failed: %v", taskID, item.ID, item.Platform, err)
			return r.fail(taskID, err)
		}

		if item.Type == ItemCornerstone {
			cornerstone = Cornerstone{Content: out.Content, Permalink: out.Permalink, PostTitle: out.PostTitle}
			haveCornerstone = true
		}

		key := content.Key{CampaignID: shared.CampaignID, UserID: shared.UserID, Week: shared.Week, Day: shared.Day, Platform: item.Platform}
		recordID, err := r.store.Upsert(ctx, key, recordFields(out, item.Title))
		if err != nil {
			return r.fail(taskID, fmt.Errorf("failed to save %s content: %w", item.Platform, err))
		}

		done := i + 1
		r.update(taskID, tasks.Update{}.WithItemsDone(done).WithProgress(100*done/total))

		if item.GenerateImage {
			if err := generation.CheckDeadline(ctx); err != nil {
				return r.fail(taskID, err)
			}
			r.attachImage(ctx, recordID, out.Content, shared.ImageSettings)
		}
	}

	r.update(taskID, tasks.Completed(tasks.DayResult{ItemsCompleted: total, ItemsTotal: total}))
	return nil
}

// RunSingle generates one item, saves it and optionally illustrates it.
func (r *Runner) RunSingle(ctx context.Context, taskID string, job SingleJob) error {
	r.update(taskID, tasks.Update{}.
		WithStatus(tasks.StatusInProgress).
		WithCurrentTask(fmt.Sprintf("Generating %s content", job.Request.Platform)))

	out, err := r.worker.Generate(ctx, job.Request, r.progress(taskID, ""))
	if err != nil {
		log.Printf("[batch] task %s failed: %v", taskID, err)
		return r.fail(taskID, err)
	}
	r.update(taskID, tasks.Update{}.WithProgress(80).WithCurrentTask("Saving content"))

	key := content.Key{CampaignID: job.CampaignID, UserID: job.UserID, Week: job.Request.Week, Day: job.Request.Day, Platform: job.Request.Platform}
	recordID, err := r.store.Upsert(ctx, key, recordFields(out, job.Title))
	if err != nil {
		return r.fail(taskID, fmt.Errorf("failed to save %s content: %w", job.Request.Platform, err))
	}

	result := SingleResult{GenerationResult: generation.NewResult(out, nil), RecordID: recordID}
	if job.GenerateImage {
		if err := generation.CheckDeadline(ctx); err != nil {
			return r.fail(taskID, err)
		}
		result.ImageURL = r.attachImage(ctx, recordID, out.Content, job.ImageSettings)
	}

	r.update(taskID, tasks.Completed(result))
	return nil
}

// attachImage generates and stores an image url. Failures are logged only.
func (r *Runner) attachImage(ctx context.Context, recordID uuid.UUID, body string, settings *images.Settings) string {
	if r.images == nil {
		log.Printf("[batch] image requested for %s but no image generator is configured", recordID)
		return ""
	}
	url, err := r.images.Generate(ctx, body, settings)
	if err != nil {
		log.Printf("[batch] image generation failed for %s: %v", recordID, err)
		return ""
	}
	if url == "" {
		return ""
	}
	ok, err := r.store.SetImageURL(ctx, recordID, url)
	if err != nil {
		log.Printf("[batch] failed to attach image to %s: %v", recordID, err)
		return ""
	}
	if !ok {
		log.Printf("[batch] record %s disappeared before image could be attached", recordID)
		return ""
	}
	return url
}

// progress mirrors agent events into the task's audit trail.
func (r *Runner) progress(taskID, itemID string) generation.ProgressFunc {
	return func(ev llm.AgentEvent) {
		task := ev.Task
		if itemID != "" {
			task = fmt.Sprintf("[%s] %s", itemID, ev.Task)
		}
		entry := tasks.AgentStatus{Agent: ev.Agent, Task: task, Status: ev.Status}
		if ev.Err != nil {
			entry.Error = ev.Err.Error()
		}
		u := tasks.Update{}.Append(entry)
		if ev.Status == llm.AgentStarted {
			u = u.WithAgent(ev.Agent, task)
		}
		r.update(taskID, u)
	}
}

func (r *Runner) fail(taskID string, err error) error {
	msg := err.Error()
	if errors.Is(err, generation.ErrDeadlineExceeded) {
		msg = tasks.MaxDurationExceeded
	}
	r.update(taskID, tasks.Failed(msg))
	return err
}

// update writes to the registry. Writes to a task the watchdog already
// failed are expected and dropped.
func (r *Runner) update(taskID string, u tasks.Update) {
	if err := r.registry.Update(taskID, u); err != nil && !errors.Is(err, tasks.ErrTaskFinished) {
		log.Printf("[batch] failed to update task %s: %v", taskID, err)
	}
}

func itemRequest(item Item, shared Shared) generation.Request {
	return generation.Request{
		Platform:            item.Platform,
		Week:                shared.Week,
		Day:                 shared.Day,
		ParentIdea:          item.ParentIdea,
		ContentQueueItems:   item.ContentQueueItems,
		AuthorPersonalityID: shared.AuthorPersonalityID,
		BrandPersonalityID:  shared.BrandPersonalityID,
		PlatformSettings:    shared.PlatformSettings[strings.ToLower(item.Platform)],
		UseAuthorVoice:      shared.UseAuthorVoice,
		UseValidation:       shared.UseValidation,
	}
}

// recordFields supplies only the fields the output actually has, so an
// update never blanks a stored value with an empty one.
func recordFields(out *generation.Output, title string) content.Fields {
	f := content.Fields{Content: content.String(out.Content)}
	if title = strings.TrimSpace(title); title == "" {
		title = out.Title
	}
	f.Title = nonEmpty(title)
	f.ContentHTML = nonEmpty(out.ContentHTML)
	f.PostTitle = nonEmpty(out.PostTitle)
	f.PostExcerpt = nonEmpty(out.PostExcerpt)
	f.Permalink = nonEmpty(out.Permalink)
	return f
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
