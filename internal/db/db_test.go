package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPersonality(t *testing.T) {
	tests := []struct {
		name    string
		p       *Personality
		kind    string
		wantErr string
	}{
		{name: "missing", p: nil, kind: PersonalityAuthor, wantErr: "not found"},
		{name: "disabled", p: &Personality{ID: "a1", Kind: PersonalityAuthor}, kind: PersonalityAuthor, wantErr: "disabled"},
		{name: "wrong kind", p: &Personality{ID: "b1", Kind: PersonalityBrand, Enabled: true}, kind: PersonalityAuthor, wantErr: "not author"},
		{name: "ok", p: &Personality{ID: "a1", Kind: PersonalityAuthor, Enabled: true}, kind: PersonalityAuthor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPersonality(tt.p, "id", tt.kind)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrPersonalityUnavailable)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFormatPersonality(t *testing.T) {
	assert.Equal(t, "Ada", FormatPersonality(&Personality{Name: "Ada"}))
	assert.Equal(t, "Ada: Warm and direct.", FormatPersonality(&Personality{Name: "Ada", Description: " Warm and direct. "}))
}

func TestUpsertSQL_UpdatesOnlySuppliedColumns(t *testing.T) {
	// Every updatable column keeps its stored value when its parameter is null.
	for _, col := range []string{"content", "content_html", "title", "post_title", "post_excerpt", "permalink", "image_url", "status", "schedule_time"} {
		assert.Contains(t, upsertContentRecordSQL, col+" ")
		assert.Contains(t, upsertContentRecordSQL, "content_records."+col+")")
	}
	assert.Contains(t, upsertContentRecordSQL, "ON CONFLICT (campaign_id, user_id, week, day, platform)")
	assert.NotContains(t, strings.ToUpper(upsertContentRecordSQL), "DELETE")
}

func TestSchemaHasUniqueKey(t *testing.T) {
	assert.Contains(t, schema, "UNIQUE (campaign_id, user_id, week, day, platform)")
}
