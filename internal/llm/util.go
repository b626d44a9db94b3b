// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanCodeFence removes a markdown code fence wrapping the whole response.
// Models often wrap plain articles in ```markdown ... ``` even when told not to.
func CleanCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the first line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// FindJSONObjects returns the [start, end) byte offsets of every top-level
// brace-balanced object in text. Braces inside double-quoted strings are
// ignored. Unbalanced trailing objects are skipped.
func FindJSONObjects(text string) [][2]int {
	var out [][2]int
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, [2]int{start, i + 1})
				start = -1
			}
		}
	}
	return out
}
