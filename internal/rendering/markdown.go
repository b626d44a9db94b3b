// Package rendering converts generated markdown bodies to HTML for platforms
// that publish HTML.
package rendering

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderError represents a markdown conversion failure
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// No html.WithUnsafe: raw HTML in model output is omitted.
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTMLPlatforms publish rendered HTML alongside the markdown body.
var HTMLPlatforms = map[string]bool{
	"blog":      true,
	"wordpress": true,
	"website":   true,
	"medium":    true,
	"email":     true,
}

// WantsHTML reports whether platform publishes HTML.
func WantsHTML(platform string) bool {
	return HTMLPlatforms[strings.ToLower(strings.TrimSpace(platform))]
}

// MarkdownToHTML renders body as HTML.
func MarkdownToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return buf.String(), nil
}
