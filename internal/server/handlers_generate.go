package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/images"
	"github.com/jonathan/content-engine/internal/orchestrator"
	"github.com/jonathan/content-engine/internal/schemas"
	"github.com/jonathan/content-engine/internal/server/middleware"
	"github.com/jonathan/content-engine/internal/tasks"
)

// maxBodyBytes bounds request bodies. Day batches with long queue items are
// the largest legitimate requests.
const maxBodyBytes = 1 << 20

// GenerateRequest is the body of POST /campaigns/{campaign_id}/generate.
type GenerateRequest struct {
	generation.Request
	Title         string           `json:"title,omitempty"`
	GenerateImage bool             `json:"generate_image,omitempty"`
	ImageSettings *images.Settings `json:"image_settings,omitempty"`
}

// DayBatchRequest is the body of POST /campaigns/{campaign_id}/generate/day.
type DayBatchRequest struct {
	Week                int                       `json:"week" validate:"min=1"`
	Day                 int                       `json:"day" validate:"min=1,max=7"`
	Items               []orchestrator.Item       `json:"items" validate:"required,min=1,dive"`
	AuthorPersonalityID string                    `json:"author_personality_id,omitempty"`
	BrandPersonalityID  string                    `json:"brand_personality_id,omitempty"`
	UseAuthorVoice      bool                      `json:"use_author_voice"`
	UseValidation       bool                      `json:"use_validation"`
	PlatformSettings    map[string]map[string]any `json:"platform_settings,omitempty"`
	ImageSettings       *images.Settings          `json:"image_settings,omitempty"`
}

// TaskResponse acknowledges a started task.
type TaskResponse struct {
	TaskID     string       `json:"task_id"`
	Status     tasks.Status `json:"status"`
	ItemsTotal *int         `json:"items_total,omitempty"`
}

// handleGenerate starts a single-item generation task.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	campaignID, userID, err := s.requestScope(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var req GenerateRequest
	if err := s.decode(w, r, schemas.GenerateRequest, &req); err != nil {
		s.handleError(w, err)
		return
	}

	job := orchestrator.SingleJob{
		CampaignID:    campaignID,
		UserID:        userID,
		Request:       req.Request,
		Title:         req.Title,
		GenerateImage: req.GenerateImage,
		ImageSettings: req.ImageSettings,
	}

	taskID := s.newTaskID()
	task := tasks.NewTask(taskID, campaignID, tasks.ScopeSingle, time.Time{})
	if _, err := s.launcher.Launch(task, func(ctx context.Context) error {
		return s.runner.RunSingle(ctx, taskID, job)
	}); err != nil {
		s.handleError(w, fmt.Errorf("failed to start task: %w", err))
		return
	}

	log.Printf("[server] started task %s: %s week %d day %d for campaign %s", taskID, req.Platform, req.Week, req.Day, campaignID)
	s.jsonResponse(w, http.StatusOK, TaskResponse{TaskID: taskID, Status: tasks.StatusPending})
}

// handleGenerateDay starts a day batch task.
func (s *Server) handleGenerateDay(w http.ResponseWriter, r *http.Request) {
	campaignID, userID, err := s.requestScope(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var req DayBatchRequest
	if err := s.decode(w, r, schemas.DayBatchRequest, &req); err != nil {
		s.handleError(w, err)
		return
	}
	if err := checkItemIDs(req.Items); err != nil {
		s.handleError(w, err)
		return
	}

	shared := orchestrator.Shared{
		CampaignID:          campaignID,
		UserID:              userID,
		Week:                req.Week,
		Day:                 req.Day,
		AuthorPersonalityID: req.AuthorPersonalityID,
		BrandPersonalityID:  req.BrandPersonalityID,
		UseAuthorVoice:      req.UseAuthorVoice,
		UseValidation:       req.UseValidation,
		PlatformSettings:    lowerKeys(req.PlatformSettings),
		ImageSettings:       req.ImageSettings,
	}
	items := req.Items

	taskID := s.newTaskID()
	total := len(items)
	task := tasks.NewDayTask(taskID, campaignID, total, time.Time{})
	if _, err := s.launcher.Launch(task, func(ctx context.Context) error {
		return s.runner.RunDay(ctx, taskID, items, shared)
	}); err != nil {
		s.handleError(w, fmt.Errorf("failed to start task: %w", err))
		return
	}

	log.Printf("[server] started day task %s: %d items week %d day %d for campaign %s", taskID, total, req.Week, req.Day, campaignID)
	s.jsonResponse(w, http.StatusOK, TaskResponse{TaskID: taskID, Status: tasks.StatusPending, ItemsTotal: &total})
}

// requestScope returns the campaign from the path and the authenticated user.
func (s *Server) requestScope(r *http.Request) (string, uuid.UUID, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return "", uuid.Nil, &ErrUnauthenticated{}
	}
	campaignID := strings.TrimSpace(r.PathValue("campaign_id"))
	if campaignID == "" {
		return "", uuid.Nil, &ErrValidation{Field: "campaign_id", Message: "is required"}
	}
	return campaignID, userID, nil
}

// decode reads the body, checks it against the named JSON schema, decodes
// it into dst and runs struct validation. Every failure is reported before
// any task exists.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &ErrValidation{Field: "(body)", Message: "unreadable or too large: " + err.Error()}
	}
	if err := schemas.Validate(schema, body); err != nil {
		return validationError(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &ErrValidation{Field: "(body)", Message: "invalid request body: " + err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func checkItemIDs(items []orchestrator.Item) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if seen[item.ID] {
			return &ErrValidation{Field: fmt.Sprintf("items[%d].id", i), Message: fmt.Sprintf("duplicate item id %q", item.ID)}
		}
		seen[item.ID] = true
	}
	return nil
}

func lowerKeys(m map[string]map[string]any) map[string]map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func newTaskID() string {
	return uuid.New().String()
}
