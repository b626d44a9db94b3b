// Package orchestrator runs generation tasks end to end: single items and
// ordered day batches in which secondary posts link back to the day's
// cornerstone.
package orchestrator

import (
	"github.com/google/uuid"

	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/images"
	"github.com/jonathan/content-engine/internal/llm"
)

// ItemType is the role of an item within a day batch.
type ItemType string

// Item types
const (
	ItemCornerstone ItemType = "cornerstone"
	ItemSecondary   ItemType = "secondary"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemCornerstone || t == ItemSecondary
}

// Item is one post to generate in a day batch.
type Item struct {
	ID                string          `json:"id" validate:"required"`
	Platform          string          `json:"platform" validate:"required"`
	Type              ItemType        `json:"type" validate:"required,oneof=cornerstone secondary"`
	Title             string          `json:"title,omitempty"`
	ParentIdea        string          `json:"parent_idea,omitempty"`
	ContentQueueItems []llm.QueueItem `json:"content_queue_items,omitempty"`
	GenerateImage     bool            `json:"generate_image,omitempty"`
}

// Shared is the context common to every item of a batch.
type Shared struct {
	CampaignID          string
	UserID              uuid.UUID
	Week                int
	Day                 int
	AuthorPersonalityID string
	BrandPersonalityID  string
	UseAuthorVoice      bool
	UseValidation       bool
	// PlatformSettings is keyed by platform name.
	PlatformSettings map[string]map[string]any
	ImageSettings    *images.Settings
}

// Cornerstone is the output of the most recent cornerstone item in a run.
type Cornerstone struct {
	Content   string
	Permalink string
	PostTitle string
}

func (c Cornerstone) apply(req generation.Request) generation.Request {
	req.CornerstoneContent = c.Content
	req.CornerstonePermalink = c.Permalink
	req.CornerstonePostTitle = c.PostTitle
	return req
}

// SingleJob is a single-item generation task.
type SingleJob struct {
	CampaignID    string
	UserID        uuid.UUID
	Request       generation.Request
	Title         string
	GenerateImage bool
	ImageSettings *images.Settings
}

// SingleResult is the completion payload of a single-item task.
type SingleResult struct {
	generation.GenerationResult
	RecordID uuid.UUID `json:"record_id"`
	ImageURL string    `json:"image_url,omitempty"`
}
