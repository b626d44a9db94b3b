// Package content defines the persisted form of generated posts and the
// upsert contract every store implements.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusDraft is the status of a record that has not been scheduled.
const StatusDraft = "draft"

// DefaultScheduleHour is the local hour new records are scheduled for.
const DefaultScheduleHour = 9

// titlePreviewLength bounds titles derived from the body.
const titlePreviewLength = 60

// Key identifies exactly one record.
type Key struct {
	CampaignID string    `json:"campaign_id"`
	UserID     uuid.UUID `json:"user_id"`
	Week       int       `json:"week"`
	Day        int       `json:"day"`
	Platform   string    `json:"platform"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/w%d/d%d/%s", k.CampaignID, k.UserID, k.Week, k.Day, k.Platform)
}

// Fields is a partial record. Nil pointers are "not supplied": on update
// they keep the stored value, on create they take a default.
type Fields struct {
	Content      *string
	ContentHTML  *string
	Title        *string
	PostTitle    *string
	PostExcerpt  *string
	Permalink    *string
	ImageURL     *string
	Status       *string
	ScheduleTime *time.Time
}

// Record is one generated post.
type Record struct {
	Key
	ID           uuid.UUID `json:"id"`
	Content      string    `json:"content"`
	ContentHTML  string    `json:"content_html,omitempty"`
	Title        string    `json:"title"`
	PostTitle    string    `json:"post_title,omitempty"`
	PostExcerpt  string    `json:"post_excerpt,omitempty"`
	Permalink    string    `json:"permalink,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Status       string    `json:"status"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists records. Implementations never delete.
type Store interface {
	// Upsert creates the record for key or overwrites the supplied fields of
	// the existing one, returning its id.
	Upsert(ctx context.Context, key Key, fields Fields) (uuid.UUID, error)
	// SetImageURL changes only the image url. It reports false when no
	// record has that id.
	SetImageURL(ctx context.Context, id uuid.UUID, url string) (bool, error)
	// Get returns nil, nil when the record does not exist.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
}

// ApplyDefaults fills the fields a new record needs but the caller did not
// supply. now determines the default schedule day; hour is the schedule hour.
func ApplyDefaults(key Key, f Fields, now time.Time, hour int) Fields {
	if f.Title == nil || strings.TrimSpace(*f.Title) == "" {
		title := DefaultTitle(key, f)
		f.Title = &title
	}
	if f.Status == nil || *f.Status == "" {
		s := StatusDraft
		f.Status = &s
	}
	if f.ScheduleTime == nil {
		if hour < 0 || hour > 23 {
			hour = DefaultScheduleHour
		}
		st := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		f.ScheduleTime = &st
	}
	if f.Content == nil {
		empty := ""
		f.Content = &empty
	}
	return f
}

// DefaultTitle picks the post title, then a body preview, then a generated
// placeholder.
func DefaultTitle(key Key, f Fields) string {
	if f.PostTitle != nil && strings.TrimSpace(*f.PostTitle) != "" {
		return strings.TrimSpace(*f.PostTitle)
	}
	if f.Content != nil {
		if preview := Preview(*f.Content, titlePreviewLength); preview != "" {
			return preview
		}
	}
	return fmt.Sprintf("Week %d Day %d %s post", key.Week, key.Day, key.Platform)
}

// Preview returns the first limit runes of text's first non-empty line, cut
// on a word boundary, with markdown heading marks removed.
func Preview(text string, limit int) string {
	var line string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "#>*- "))
		if l != "" {
			line = l
			break
		}
	}
	line = strings.Join(strings.Fields(line), " ")
	runes := []rune(line)
	if len(runes) <= limit {
		return line
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.-") + "..."
}

// String returns a pointer to s, for building Fields.
func String(s string) *string { return &s }
