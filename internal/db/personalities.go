package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Personality Methods
// -----------------------------------------------------------------------------

// GetPersonality retrieves a personality profile by id, or nil if missing.
func (db *DB) GetPersonality(ctx context.Context, id string) (*Personality, error) {
	var p Personality
	err := db.pool.QueryRow(ctx,
		`SELECT id, kind, name, description, enabled, created_at
		 FROM personalities WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Kind, &p.Name, &p.Description, &p.Enabled, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get personality: %w", err)
	}
	return &p, nil
}

// AuthorVoice returns the description of an enabled author personality.
// It errors when the profile is missing or disabled.
func (db *DB) AuthorVoice(ctx context.Context, id string) (string, error) {
	return db.voice(ctx, id, PersonalityAuthor)
}

// BrandVoice returns the description of an enabled brand personality.
func (db *DB) BrandVoice(ctx context.Context, id string) (string, error) {
	return db.voice(ctx, id, PersonalityBrand)
}

func (db *DB) voice(ctx context.Context, id, kind string) (string, error) {
	p, err := db.GetPersonality(ctx, id)
	if err != nil {
		return "", err
	}
	if err := checkPersonality(p, id, kind); err != nil {
		return "", err
	}
	return FormatPersonality(p), nil
}

// ErrPersonalityUnavailable is returned for missing, disabled or mistyped
// personality profiles.
var ErrPersonalityUnavailable = errors.New("personality unavailable")

func checkPersonality(p *Personality, id, kind string) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: %s not found", ErrPersonalityUnavailable, id)
	case !p.Enabled:
		return fmt.Errorf("%w: %s is disabled", ErrPersonalityUnavailable, id)
	case p.Kind != kind:
		return fmt.Errorf("%w: %s is a %s personality, not %s", ErrPersonalityUnavailable, id, p.Kind, kind)
	}
	return nil
}

// FormatPersonality renders a profile as prompt text.
func FormatPersonality(p *Personality) string {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return p.Name
	}
	return p.Name + ": " + desc
}
