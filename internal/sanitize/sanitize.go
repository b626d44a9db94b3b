// Package sanitize strips structured publishing fields (titles, excerpts,
// permalinks) out of body text before it is persisted or sent downstream.
//
// It runs on every body regardless of how, or whether, extraction succeeded,
// and deliberately shares no code with the extraction package.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// Single-line labels: the whole line goes.
	singleLineLabel = regexp.MustCompile(`(?i)^[ \t>*_#-]*(post title|seo title|title|permalink/slug|permalink|url slug|slug)[ \t*_]*:`)
	// Excerpt blocks run to the next label line or end of text.
	excerptLabel = regexp.MustCompile(`(?i)^[ \t>*_#-]*(post excerpt|excerpt|meta description)[ \t*_]*:`)
	// Body marker: the label goes, inline text stays.
	bodyLabel = regexp.MustCompile(`(?i)^[ \t>*_#-]*article body[ \t*_]*:[ \t*_]*`)
	// Markdown headers naming a field ("## Post Title", "### Excerpt").
	fieldHeader = regexp.MustCompile(`(?i)^[ \t]*#{1,6}[ \t]*(post title|post excerpt|excerpt|permalink|slug|article body)[ \t*_:]*$`)
	// Three-field JSON objects.
	fieldJSON = regexp.MustCompile(`(?s)\{[^{}]*"?(post_title|post_excerpt|permalink)"?[ \t\r\n]*:[^{}]*\}`)
	// Code fences left empty once JSON is removed.
	emptyFence = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*\n(?:[ \t]*\n)*[ \t]*```[ \t]*$")

	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
)

// labelPrefixes catches anything the anchored patterns above missed.
var labelPrefixes = []string{
	"post title:", "post excerpt:", "permalink:", "permalink/slug:", "slug:",
	"article body:", "excerpt:", "meta description:",
	"**post title", "**post excerpt", "**excerpt", "**permalink", "**slug", "**article body",
}

// Body returns text with every structured-field artifact removed.
// Body(Body(t)) == Body(t) for all t: passes repeat until nothing changes, and
// every pass that changes the text makes it shorter.
func Body(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for {
		next := pass(text)
		if next == text {
			return text
		}
		text = next
	}
}

func pass(text string) string {
	lines := strings.Split(text, "\n")
	lines = dropLabelLines(lines)
	lines = dropPrefixedLines(lines)
	text = strings.Join(lines, "\n")

	text = fieldJSON.ReplaceAllString(text, "")
	text = emptyFence.ReplaceAllString(text, "")

	lines = strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !fieldHeader.MatchString(line) {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	text = trailingSpace.ReplaceAllString(text, "")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// dropLabelLines removes single-line labels and excerpt blocks. Label
// positions are found before anything is removed, so an excerpt ends at the
// next label of any kind.
func dropLabelLines(lines []string) []string {
	isLabel := make([]bool, len(lines))
	for i, line := range lines {
		isLabel[i] = singleLineLabel.MatchString(line) || excerptLabel.MatchString(line) || bodyLabel.MatchString(line)
	}

	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case bodyLabel.MatchString(line):
			if rest := strings.TrimSpace(bodyLabel.ReplaceAllString(line, "")); rest != "" {
				out = append(out, rest)
			}
		case excerptLabel.MatchString(line):
			for i+1 < len(lines) && !isLabel[i+1] {
				i++
			}
		case singleLineLabel.MatchString(line):
		default:
			out = append(out, line)
		}
	}
	return out
}

func dropPrefixedLines(lines []string) []string {
	out := lines[:0]
	for _, line := range lines {
		if !hasLabelPrefix(strings.ToLower(strings.TrimSpace(line))) {
			out = append(out, line)
		}
	}
	return out
}

func hasLabelPrefix(lower string) bool {
	for _, p := range labelPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
