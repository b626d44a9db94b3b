// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/content-engine/internal/extraction"
	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/validation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxPreviewLines is how much of a body is shown
	maxPreviewLines = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// PrintAgentEvent writes one line per agent lifecycle event.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintAgentEvent(ev llm.AgentEvent) {
	marker := "▸"
	switch ev.Status {
	case llm.AgentCompleted:
		marker = "✓"
	case llm.AgentFailed:
		marker = "✗"
	}
	if ev.Err != nil {
		fmt.Fprintf(p.out, "  %s %-20s %s (%v)\n", marker, ev.Agent, ev.Task, ev.Err)
		return
	}
	fmt.Fprintf(p.out, "  %s %-20s %s\n", marker, ev.Agent, ev.Task)
}

// PrintOutput outputs a summary of a generated post with a body preview.
func (p *Printer) PrintOutput(out *generation.Output) {
	if out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Path:       %s\n", out.Path))
	if out.FormatDetected != "" {
		sb.WriteString(fmt.Sprintf("Format:     %s\n", out.FormatDetected))
	}
	if out.PostTitle != "" {
		sb.WriteString(fmt.Sprintf("Title:      %s\n", out.PostTitle))
	}
	if out.Permalink != "" {
		sb.WriteString(fmt.Sprintf("Permalink:  %s\n", out.Permalink))
	}
	if out.PostExcerpt != "" {
		sb.WriteString(fmt.Sprintf("Excerpt:    %s\n", out.PostExcerpt))
	}
	sb.WriteString(fmt.Sprintf("Characters: %d\n", utf8.RuneCountInString(out.Content)))
	sb.WriteString("\n")
	sb.WriteString(preview(out.Content))

	p.printBox("GENERATED CONTENT", sb.String())

	if out.Validation != nil {
		p.PrintValidation(out.Validation)
	}
}

// PrintFields outputs the structured fields found in generated text.
func (p *Printer) PrintFields(f extraction.Fields) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Format:     %s\n", f.FormatDetected))
	sb.WriteString(fmt.Sprintf("Title:      %s\n", orDash(f.PostTitle)))
	sb.WriteString(fmt.Sprintf("Excerpt:    %s\n", orDash(f.PostExcerpt)))
	sb.WriteString(fmt.Sprintf("Permalink:  %s\n", orDash(f.Permalink)))
	sb.WriteString(fmt.Sprintf("Lengths:    raw %d, body %d", f.RawLength, f.BodyLength))

	p.printBox("EXTRACTED FIELDS", sb.String())
}

// PrintValidation outputs platform validation results.
func (p *Printer) PrintValidation(r *validation.Report) {
	if r == nil {
		return
	}

	var sb strings.Builder
	status := "✓ valid"
	if !r.Valid {
		status = "✗ invalid"
	}
	sb.WriteString(fmt.Sprintf("%s for %s\n", status, r.Platform))
	sb.WriteString(fmt.Sprintf("Chars: %d  Words: %d  Hashtags: %d", r.CharCount, r.WordCount, r.HashtagCount))

	if len(r.Issues) > 0 {
		sb.WriteString("\n\n")
		for i, issue := range r.Issues {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s", issue.Severity, issue.Code, issue.Message))
			if i < len(r.Issues)-1 {
				sb.WriteString("\n")
			}
		}
	}

	p.printBox("VALIDATION", sb.String())
}

func preview(body string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) <= maxPreviewLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxPreviewLines], "\n") + fmt.Sprintf("\n... and %d more lines", len(lines)-maxPreviewLines)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
