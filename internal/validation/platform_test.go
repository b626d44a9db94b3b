package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesFor(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		settings map[string]any
		want     Rules
	}{
		{name: "twitter default", platform: "twitter", want: Rules{MaxChars: 280, MaxHashtags: 3}},
		{name: "case insensitive", platform: " LinkedIn ", want: Rules{MaxChars: 3000, MaxHashtags: 5}},
		{name: "json override", platform: "twitter", settings: map[string]any{"max_length": float64(200)}, want: Rules{MaxChars: 200, MaxHashtags: 3}},
		{name: "string override", platform: "facebook", settings: map[string]any{"max_length": "500"}, want: Rules{MaxChars: 500}},
		{name: "min words override", platform: "blog", settings: map[string]any{"min_words": 50}, want: Rules{MinWords: 50, RequireTitle: true}},
		{name: "unknown platform", platform: "myspace", want: Rules{}},
		{name: "bad override ignored", platform: "threads", settings: map[string]any{"max_length": "lots"}, want: Rules{MaxChars: 500, MaxHashtags: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RulesFor(tt.platform, tt.settings))
		})
	}
}

func TestValidate(t *testing.T) {
	longTweet := strings.Repeat("a", 281)
	shortBlog := "Just a few words here."

	tests := []struct {
		name      string
		platform  string
		title     string
		body      string
		wantValid bool
		wantCodes []string
	}{
		{name: "valid tweet", platform: "twitter", body: "Ship small, ship often. #devops", wantValid: true},
		{name: "tweet too long", platform: "twitter", body: longTweet, wantValid: false, wantCodes: []string{CodeTooLong}},
		{name: "empty", platform: "linkedin", body: "  ", wantValid: false, wantCodes: []string{CodeEmpty}},
		{name: "hashtags", platform: "twitter", body: "#a #b #c #d", wantValid: true, wantCodes: []string{CodeTooManyTags}},
		{name: "short blog warns", platform: "blog", title: "A Title", body: shortBlog, wantValid: true, wantCodes: []string{CodeTooShort}},
		{name: "missing title warns", platform: "blog", body: strings.Repeat("word ", 300), wantValid: true, wantCodes: []string{CodeMissingTitle}},
		{name: "leftover label", platform: "linkedin", body: "Post Title: Oops\nBody", wantValid: false, wantCodes: []string{CodeLeftoverLabel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(tt.platform, tt.title, tt.body, RulesFor(tt.platform, nil))
			assert.Equal(t, tt.wantValid, report.Valid)

			var codes []string
			for _, issue := range report.Issues {
				codes = append(codes, issue.Code)
			}
			for _, code := range tt.wantCodes {
				assert.Contains(t, codes, code)
			}
			if len(tt.wantCodes) == 0 {
				assert.Empty(t, report.Issues)
			}
		})
	}
}

func TestValidate_Counts(t *testing.T) {
	report := Validate("instagram", "", "héllo world #go #golang", RulesFor("instagram", nil))
	assert.Equal(t, 23, report.CharCount)
	assert.Equal(t, 4, report.WordCount)
	assert.Equal(t, 2, report.HashtagCount)
}
