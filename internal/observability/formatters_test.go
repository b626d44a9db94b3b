package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/content-engine/internal/extraction"
	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/validation"
)

func TestPrintOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOutput(&generation.Output{
		Content:        strings.Repeat("line\n", 12) + "last",
		PostTitle:      "Ten Tips for Remote Teams",
		Permalink:      "ten-tips",
		FormatDetected: extraction.FormatCanonical,
		Path:           generation.PathPipeline,
		Validation:     &validation.Report{Platform: "blog", Valid: true, CharCount: 64},
	})
	output := buf.String()

	assert.Contains(t, output, "GENERATED CONTENT")
	assert.Contains(t, output, "pipeline")
	assert.Contains(t, output, "canonical")
	assert.Contains(t, output, "Ten Tips for Remote Teams")
	assert.Contains(t, output, "... and 5 more lines")
	assert.Contains(t, output, "VALIDATION")
	assert.Contains(t, output, "✓ valid for blog")
	assert.NotContains(t, output, "Excerpt:")
}

func TestPrintOutput_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutput(nil)
	assert.Empty(t, buf.String())
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFields(extraction.Fields{PostTitle: "A Title", FormatDetected: extraction.FormatHeuristic, RawLength: 42})
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED FIELDS")
	assert.Contains(t, output, "heuristic")
	assert.Contains(t, output, "Permalink:  -")
	assert.Contains(t, output, "raw 42, body 0")
}

func TestPrintValidation_Issues(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintValidation(&validation.Report{
		Platform: "twitter",
		Issues:   []validation.Issue{{Code: validation.CodeTooLong, Severity: validation.SeverityError, Message: "301 characters exceeds 280"}},
	})
	output := buf.String()

	assert.Contains(t, output, "✗ invalid for twitter")
	assert.Contains(t, output, "[error] too_long")
}

func TestPrintAgentEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAgentEvent(llm.AgentEvent{Agent: llm.AgentWriter, Task: "Writing draft", Status: llm.AgentStarted})
	p.PrintAgentEvent(llm.AgentEvent{Agent: llm.AgentWriter, Task: "Writing draft", Status: llm.AgentCompleted})
	p.PrintAgentEvent(llm.AgentEvent{Agent: llm.AgentQualityControl, Task: "Reviewing draft", Status: llm.AgentFailed, Err: errors.New("timeout")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "▸ content_writer")
	assert.Contains(t, lines[1], "✓ content_writer")
	assert.Contains(t, lines[2], "✗ quality_control")
	assert.Contains(t, lines[2], "(timeout)")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
