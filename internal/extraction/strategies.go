package extraction

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jonathan/content-engine/internal/llm"
)

// -----------------------------------------------------------------------------
// Canonical: "Post Title:", "Post Excerpt:", "Permalink:", "Article Body:"
// -----------------------------------------------------------------------------

// Labels may carry markdown emphasis: "**Post Title:** X" or "__Permalink__: x".
var canonicalLabel = regexp.MustCompile(`(?i)^[ \t>*_-]*(post title|post excerpt|permalink|article body)[ \t*_]*:[ \t*_]*(.*)$`)

type canonicalStrategy struct{}

func (canonicalStrategy) Format() Format { return FormatCanonical }

type labelLine struct {
	index     int
	label     string
	value     string
	decorated bool
}

func findCanonicalLabels(lines []string) []labelLine {
	var labels []labelLine
	for i, line := range lines {
		if m := canonicalLabel.FindStringSubmatch(line); m != nil {
			labels = append(labels, labelLine{
				index:     i,
				label:     strings.ToLower(m[1]),
				value:     strings.TrimSpace(m[2]),
				decorated: strings.IndexAny(strings.TrimSpace(line), "*_") == 0,
			})
		}
	}
	return labels
}

// Extract claims the text once any label carries a value, even when the
// length rules reject every field. The body is still cleaned in that case.
func (canonicalStrategy) Extract(text string) (Fields, bool) {
	lines := splitLines(text)

	labels := findCanonicalLabels(lines)
	if len(labels) == 0 || boldPermalinkOnly(labels) {
		return Fields{}, false
	}

	isLabel := make(map[int]bool, len(labels))
	for _, l := range labels {
		isLabel[l.index] = true
	}

	removed := make([]bool, len(lines))
	bodyStart := -1
	bodyInline := ""
	claimed := false
	var f Fields

	for n, l := range labels {
		switch l.label {
		case "post title", "permalink":
			removed[l.index] = true
			value := l.value
			if value == "" {
				// Value on the following line
				if next := l.index + 1; next < len(lines) && !isLabel[next] && strings.TrimSpace(lines[next]) != "" {
					value = strings.TrimSpace(lines[next])
					removed[next] = true
				}
			}
			if value != "" {
				claimed = true
			}
			if l.label == "post title" && f.PostTitle == "" {
				f.PostTitle = NormalizeTitle(value)
			}
			if l.label == "permalink" && f.Permalink == "" {
				f.Permalink = NormalizePermalink(value)
			}
		case "post excerpt":
			removed[l.index] = true
			end := paragraphEnd(lines, l.index+1)
			if n+1 < len(labels) {
				end = labels[n+1].index
			}
			parts := []string{l.value}
			for i := l.index + 1; i < end; i++ {
				parts = append(parts, lines[i])
				removed[i] = true
			}
			excerpt := strings.TrimSpace(strings.Join(parts, " "))
			if excerpt != "" {
				claimed = true
			}
			if f.PostExcerpt == "" {
				f.PostExcerpt = NormalizeExcerpt(excerpt)
			}
		case "article body":
			removed[l.index] = true
			if bodyStart < 0 {
				bodyStart = l.index
				bodyInline = l.value
			}
		}
	}

	var body []string
	if bodyStart >= 0 {
		if bodyInline != "" {
			body = append(body, bodyInline)
		}
		for i := bodyStart + 1; i < len(lines); i++ {
			if !removed[i] {
				body = append(body, lines[i])
			}
		}
	} else {
		for i, line := range lines {
			if !removed[i] {
				body = append(body, line)
			}
		}
	}
	f.CleanedBody = tidy(strings.Join(body, "\n"))

	if !claimed && !(bodyStart >= 0 && f.CleanedBody != "") {
		return Fields{}, false
	}
	return f, true
}

// boldPermalinkOnly reports labels that are nothing but "**Permalink:**",
// which belongs to the markdown fallback.
func boldPermalinkOnly(labels []labelLine) bool {
	for _, l := range labels {
		if l.label != "permalink" || !l.decorated {
			return false
		}
	}
	return true
}

// paragraphEnd returns the index of the first blank line at or after start.
func paragraphEnd(lines []string, start int) int {
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			return i
		}
	}
	return len(lines)
}

// -----------------------------------------------------------------------------
// JSON-embedded: {"post_title": ..., "post_excerpt": ..., "permalink": ...}
// -----------------------------------------------------------------------------

var (
	jsonFieldKey = regexp.MustCompile(`"?(post_title|post_excerpt|permalink)"?\s*:`)
	bareJSONKey  = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

type jsonStrategy struct{}

func (jsonStrategy) Format() Format { return FormatJSON }

func (jsonStrategy) Extract(text string) (Fields, bool) {
	for _, loc := range llm.FindJSONObjects(text) {
		block := text[loc[0]:loc[1]]
		if !jsonFieldKey.MatchString(block) {
			continue
		}
		values, ok := parseLooseJSON(block)
		if !ok {
			continue
		}

		f := Fields{
			PostTitle:   NormalizeTitle(stringValue(values["post_title"])),
			PostExcerpt: NormalizeExcerpt(stringValue(values["post_excerpt"])),
			Permalink:   NormalizePermalink(stringValue(values["permalink"])),
		}
		if !f.HasAny() {
			continue
		}

		body := text[:loc[0]] + text[loc[1]:]
		body = emptyCodeFence.ReplaceAllString(body, "")
		f.CleanedBody = tidy(body)
		return f, true
	}
	return Fields{}, false
}

var emptyCodeFence = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*\n(?:[ \t]*\n)*[ \t]*```[ \t]*$")

// parseLooseJSON parses an object, quoting bare keys when strict parsing fails.
func parseLooseJSON(block string) (map[string]any, bool) {
	var values map[string]any
	if err := json.Unmarshal([]byte(block), &values); err == nil {
		return values, true
	}
	quoted := bareJSONKey.ReplaceAllString(block, `$1"$2":`)
	if err := json.Unmarshal([]byte(quoted), &values); err == nil {
		return values, true
	}
	return nil, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// -----------------------------------------------------------------------------
// Markdown fallback: "# Title", "**Excerpt:**", "**Permalink:**" / "**Permalink/Slug:**"
// -----------------------------------------------------------------------------

var (
	markdownTitle     = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*$`)
	markdownExcerpt   = regexp.MustCompile(`(?is)\*\*Excerpt:\*\*[ \t]*(.*?)(?:\n[ \t]*\n|\n\*\*|\z)`)
	markdownPermalink = regexp.MustCompile(`(?im)^[ \t]*\*\*Permalink(?:/Slug)?:\*\*[ \t]*(.*?)[ \t]*$`)
)

type markdownStrategy struct{}

func (markdownStrategy) Format() Format { return FormatMarkdownFallback }

func (markdownStrategy) Extract(text string) (Fields, bool) {
	var f Fields
	var cuts [][2]int

	if m := markdownTitle.FindStringSubmatchIndex(text); m != nil {
		f.PostTitle = NormalizeTitle(text[m[2]:m[3]])
		cuts = append(cuts, [2]int{m[0], m[1]})
	}
	if m := markdownExcerpt.FindStringSubmatchIndex(text); m != nil {
		f.PostExcerpt = NormalizeExcerpt(text[m[2]:m[3]])
		// Keep the terminator so a following bold label survives.
		cuts = append(cuts, [2]int{m[0], m[3]})
	}
	if m := markdownPermalink.FindStringSubmatchIndex(text); m != nil {
		f.Permalink = NormalizePermalink(text[m[2]:m[3]])
		cuts = append(cuts, [2]int{m[0], m[1]})
	}

	if !f.HasAny() {
		return Fields{}, false
	}
	f.CleanedBody = tidy(removeRanges(text, cuts))
	return f, true
}

// removeRanges deletes the given [start,end) ranges, tolerating overlap.
func removeRanges(text string, cuts [][2]int) string {
	keep := make([]bool, len(text))
	for i := range keep {
		keep[i] = true
	}
	for _, c := range cuts {
		for i := c[0]; i < c[1] && i < len(text); i++ {
			keep[i] = false
		}
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if keep[i] {
			sb.WriteByte(text[i])
		}
	}
	return sb.String()
}

// -----------------------------------------------------------------------------
// Heuristic: first heading or line as title, first paragraph as excerpt
// -----------------------------------------------------------------------------

var anyHeading = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*$`)

type heuristicStrategy struct{}

func (heuristicStrategy) Format() Format { return FormatHeuristic }

// Extract never cleans the body; callers fall back to the raw text.
func (heuristicStrategy) Extract(text string) (Fields, bool) {
	text = withoutCanonicalLabels(text)
	var f Fields
	titleLine := ""

	if m := anyHeading.FindStringSubmatch(text); m != nil {
		titleLine = strings.TrimSpace(m[0])
		f.PostTitle = NormalizeTitle(m[1])
	} else {
		for _, line := range splitLines(text) {
			if strings.TrimSpace(line) != "" {
				titleLine = strings.TrimSpace(line)
				f.PostTitle = NormalizeTitle(strings.TrimLeft(titleLine, "#* "))
				break
			}
		}
	}

	for _, para := range paragraphs(text) {
		if para == titleLine || strings.HasPrefix(para, "#") {
			continue
		}
		f.PostExcerpt = NormalizeExcerpt(para)
		break
	}

	return f, f.HasAny()
}

// withoutCanonicalLabels drops label lines so they never become a title or
// excerpt.
func withoutCanonicalLabels(text string) string {
	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if !canonicalLabel.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

var (
	blankRun       = regexp.MustCompile(`\n{3,}`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tidy(s string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}
