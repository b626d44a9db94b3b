// Package validation checks generated posts against per-platform publishing
// constraints.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Severity levels
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue codes
const (
	CodeTooLong       = "too_long"
	CodeTooShort      = "too_short"
	CodeEmpty         = "empty"
	CodeTooManyTags   = "too_many_hashtags"
	CodeLeftoverLabel = "leftover_label"
	CodeMissingTitle  = "missing_title"
)

// Rules are the constraints for one platform.
type Rules struct {
	MaxChars    int `json:"max_chars,omitempty"`
	MinWords    int `json:"min_words,omitempty"`
	MaxHashtags int `json:"max_hashtags,omitempty"`
	// RequireTitle is set for platforms that publish a separate title.
	RequireTitle bool `json:"require_title,omitempty"`
}

// DefaultRules maps lower-case platform names to their constraints.
var DefaultRules = map[string]Rules{
	"twitter":   {MaxChars: 280, MaxHashtags: 3},
	"x":         {MaxChars: 280, MaxHashtags: 3},
	"threads":   {MaxChars: 500, MaxHashtags: 5},
	"linkedin":  {MaxChars: 3000, MaxHashtags: 5},
	"instagram": {MaxChars: 2200, MaxHashtags: 30},
	"facebook":  {MaxChars: 63206},
	"blog":      {MinWords: 300, RequireTitle: true},
	"wordpress": {MinWords: 300, RequireTitle: true},
	"website":   {MinWords: 300, RequireTitle: true},
	"medium":    {MinWords: 300, RequireTitle: true},
}

// Issue is one failed check.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Report is the result of validating one post.
type Report struct {
	Platform     string  `json:"platform"`
	Valid        bool    `json:"valid"`
	CharCount    int     `json:"char_count"`
	WordCount    int     `json:"word_count"`
	HashtagCount int     `json:"hashtag_count"`
	Rules        Rules   `json:"rules"`
	Issues       []Issue `json:"issues"`
}

var (
	hashtag = regexp.MustCompile(`(?:^|\s)#[\p{L}\p{N}_]+`)
	// Field labels that should never reach a published body.
	leftoverLabel = regexp.MustCompile(`(?im)^[ \t*_#>-]*(post title|post excerpt|permalink|article body)[ \t*_]*:`)
)

// RulesFor returns the default rules for platform with an optional
// max_length override from platform settings.
func RulesFor(platform string, settings map[string]any) Rules {
	rules := DefaultRules[strings.ToLower(strings.TrimSpace(platform))]
	if n, ok := intSetting(settings, "max_length"); ok && n > 0 {
		rules.MaxChars = n
	}
	if n, ok := intSetting(settings, "min_words"); ok && n >= 0 {
		rules.MinWords = n
	}
	return rules
}

// Validate checks body (and title, for titled platforms) against rules.
func Validate(platform, title, body string, rules Rules) *Report {
	report := &Report{
		Platform:     platform,
		CharCount:    utf8.RuneCountInString(body),
		WordCount:    len(strings.Fields(body)),
		HashtagCount: len(hashtag.FindAllString(body, -1)),
		Rules:        rules,
		Issues:       []Issue{},
	}

	if strings.TrimSpace(body) == "" {
		report.add(CodeEmpty, SeverityError, "content is empty")
	}
	if rules.MaxChars > 0 && report.CharCount > rules.MaxChars {
		report.addf(CodeTooLong, SeverityError, "content is %d characters, limit is %d", report.CharCount, rules.MaxChars)
	}
	if rules.MinWords > 0 && report.WordCount < rules.MinWords {
		report.addf(CodeTooShort, SeverityWarning, "content is %d words, expected at least %d", report.WordCount, rules.MinWords)
	}
	if rules.MaxHashtags > 0 && report.HashtagCount > rules.MaxHashtags {
		report.addf(CodeTooManyTags, SeverityWarning, "content has %d hashtags, recommended maximum is %d", report.HashtagCount, rules.MaxHashtags)
	}
	if rules.RequireTitle && strings.TrimSpace(title) == "" {
		report.add(CodeMissingTitle, SeverityWarning, "no post title was extracted")
	}
	if leftoverLabel.MatchString(body) {
		report.add(CodeLeftoverLabel, SeverityError, "content still contains a structured field label")
	}

	report.Valid = true
	for _, issue := range report.Issues {
		if issue.Severity == SeverityError {
			report.Valid = false
			break
		}
	}
	return report
}
