package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/content-engine/internal/content"
)

// Compile-time check
var _ content.Store = (*DB)(nil)

// -----------------------------------------------------------------------------
// Content Record Methods
// -----------------------------------------------------------------------------

// The insert branch carries defaulted values ($7-$15); the update branch
// only overwrites columns whose raw parameter ($16-$24) is non-null.
const upsertContentRecordSQL = `
INSERT INTO content_records (
	id, campaign_id, user_id, week, day, platform,
	content, content_html, title, post_title, post_excerpt, permalink, image_url, status, schedule_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (campaign_id, user_id, week, day, platform) DO UPDATE SET
	content       = COALESCE($16, content_records.content),
	content_html  = COALESCE($17, content_records.content_html),
	title         = COALESCE($18, content_records.title),
	post_title    = COALESCE($19, content_records.post_title),
	post_excerpt  = COALESCE($20, content_records.post_excerpt),
	permalink     = COALESCE($21, content_records.permalink),
	image_url     = COALESCE($22, content_records.image_url),
	status        = COALESCE($23, content_records.status),
	schedule_time = COALESCE($24, content_records.schedule_time),
	updated_at    = NOW()
RETURNING id`

// Upsert creates or updates the record for key and returns its id.
func (db *DB) Upsert(ctx context.Context, key content.Key, f content.Fields) (uuid.UUID, error) {
	d := content.ApplyDefaults(key, f, db.now(), db.scheduleHour)

	var id uuid.UUID
	err := db.pool.QueryRow(ctx, upsertContentRecordSQL,
		uuid.New(), key.CampaignID, key.UserID, key.Week, key.Day, key.Platform,
		d.Content, d.ContentHTML, d.Title, d.PostTitle, d.PostExcerpt, d.Permalink, d.ImageURL, d.Status, d.ScheduleTime,
		f.Content, f.ContentHTML, f.Title, f.PostTitle, f.PostExcerpt, f.Permalink, f.ImageURL, f.Status, f.ScheduleTime,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert content record %s: %w", key, err)
	}
	return id, nil
}

// SetImageURL sets only the image url of a record.
func (db *DB) SetImageURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE content_records SET image_url = $1, updated_at = NOW() WHERE id = $2`,
		url, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set image url: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const contentRecordColumns = `id, campaign_id, user_id, week, day, platform,
	content, COALESCE(content_html, ''), title, COALESCE(post_title, ''), COALESCE(post_excerpt, ''),
	COALESCE(permalink, ''), COALESCE(image_url, ''), status, schedule_time, created_at, updated_at`

// Get retrieves a content record by id
func (db *DB) Get(ctx context.Context, id uuid.UUID) (*content.Record, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+contentRecordColumns+` FROM content_records WHERE id = $1`, id)
	return scanContentRecord(row)
}

func scanContentRecord(row pgx.Row) (*content.Record, error) {
	var r content.Record
	err := row.Scan(&r.ID, &r.CampaignID, &r.UserID, &r.Week, &r.Day, &r.Platform,
		&r.Content, &r.ContentHTML, &r.Title, &r.PostTitle, &r.PostExcerpt,
		&r.Permalink, &r.ImageURL, &r.Status, &r.ScheduleTime, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get content record: %w", err)
	}
	return &r, nil
}
