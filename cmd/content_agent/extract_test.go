package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-engine/internal/extraction"
)

func TestBuildExtractReport(t *testing.T) {
	text := "Post Title: Ten Tips for Remote Teams\nPermalink: ten-tips\nArticle Body: The body.\n\nPost Excerpt: a stray excerpt label\n"

	report := buildExtractReport(text, "blog", false)

	assert.Equal(t, extraction.FormatCanonical, report.Fields.FormatDetected)
	assert.Equal(t, "Ten Tips for Remote Teams", report.Fields.PostTitle)
	assert.Equal(t, "The body.", report.Body)
	assert.Nil(t, report.Validation)
}

func TestBuildExtractReport_HeuristicUsesRawText(t *testing.T) {
	text := "A first line long enough\n\nSecond paragraph of text."

	report := buildExtractReport(text, "blog", true)

	assert.Equal(t, extraction.FormatHeuristic, report.Fields.FormatDetected)
	assert.Equal(t, text, report.Body)
	require.NotNil(t, report.Validation)
	assert.Equal(t, "blog", report.Validation.Platform)
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0644))

	got, err := readInput(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	got, err = readInput(strings.NewReader("from stdin"), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readInput(nil, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input file")
}

func TestRunExtract(t *testing.T) {
	var out bytes.Buffer
	extractCmd.SetIn(strings.NewReader("# A Markdown Title\n\n**Excerpt:** An excerpt that is long enough.\n\nBody."))
	extractCmd.SetOut(&out)
	t.Cleanup(func() {
		extractCmd.SetIn(nil)
		extractCmd.SetOut(nil)
		extractInput = ""
	})
	extractInput = "-"

	require.NoError(t, runExtract(extractCmd, nil))

	var report ExtractReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, extraction.FormatMarkdownFallback, report.Fields.FormatDetected)
	assert.Equal(t, "A Markdown Title", report.Fields.PostTitle)
	assert.Equal(t, "Body.", report.Body)
}
