package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxExcerptLength is the longest excerpt kept before truncation.
	MaxExcerptLength = 500

	minTitleLength     = 5
	minExcerptLength   = 10
	minPermalinkLength = 3
)

var (
	permalinkInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	permalinkSeparators   = regexp.MustCompile(`[\s_]+`)
	repeatedHyphens       = regexp.MustCompile(`-{2,}`)
	whitespaceRun         = regexp.MustCompile(`\s+`)
)

// NormalizeTitle cleans a candidate title. It returns "" when the result is
// too short to be a real title.
func NormalizeTitle(s string) string {
	s = stripDecoration(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	if utf8.RuneCountInString(s) <= minTitleLength {
		return ""
	}
	return s
}

// NormalizeExcerpt collapses whitespace and truncates on a word boundary.
// Excerpts of 10 characters or fewer are rejected.
func NormalizeExcerpt(s string) string {
	s = stripDecoration(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = truncateWords(s, MaxExcerptLength)
	if utf8.RuneCountInString(s) <= minExcerptLength {
		return ""
	}
	return s
}

// NormalizePermalink converts a candidate slug (or URL) into [a-z0-9-]+ form.
// Results of 3 characters or fewer are rejected.
func NormalizePermalink(s string) string {
	s = strings.TrimSpace(stripDecoration(s))
	if strings.Contains(s, "/") {
		s = lastPathSegment(s)
	}
	s = strings.ToLower(s)
	s = permalinkSeparators.ReplaceAllString(s, "-")
	s = permalinkInvalidChars.ReplaceAllString(s, "")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) <= minPermalinkLength {
		return ""
	}
	return s
}

// truncateWords cuts s to at most limit runes, backing up to the last space
// and appending an ellipsis. Strings within the limit are returned as is.
// When the last space sits in the first half, the cut is made mid-word.
func truncateWords(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit-3])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:.-") + "..."
}

// stripDecoration removes wrapping quotes and markdown emphasis.
func stripDecoration(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

func lastPathSegment(s string) string {
	s = strings.SplitN(s, "?", 2)[0]
	s = strings.SplitN(s, "#", 2)[0]
	parts := strings.Split(strings.TrimRight(s, "/"), "/")
	return parts[len(parts)-1]
}
