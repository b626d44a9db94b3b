// Package extraction turns generated article text into structured publishing
// fields (title, excerpt, permalink) and a cleaned body.
//
// Extraction is a cascade of strategies evaluated in priority order. The first
// strategy that claims the text wins and lower strategies are never
// consulted. A claim can carry no accepted fields when the length rules
// reject every value.
package extraction

import "unicode/utf8"

// Format identifies which strategy produced a set of fields.
type Format string

// Formats in priority order.
const (
	FormatCanonical        Format = "canonical"
	FormatJSON             Format = "json"
	FormatMarkdownFallback Format = "markdown_fallback"
	FormatHeuristic        Format = "heuristic"
)

// Fields holds the structured fields pulled from generated text.
type Fields struct {
	PostTitle      string `json:"post_title,omitempty"`
	PostExcerpt    string `json:"post_excerpt,omitempty"`
	Permalink      string `json:"permalink,omitempty"`
	FormatDetected Format `json:"format_detected"`
	// CleanedBody is empty when the strategy did not clean the body.
	CleanedBody string `json:"cleaned_body,omitempty"`

	RawLength     int `json:"raw_length"`
	BodyLength    int `json:"body_length"`
	TitleLength   int `json:"title_length"`
	ExcerptLength int `json:"excerpt_length"`
}

// HasAny reports whether at least one structured field was accepted.
func (f Fields) HasAny() bool {
	return f.PostTitle != "" || f.PostExcerpt != "" || f.Permalink != ""
}

// Strategy is one level of the extraction cascade.
type Strategy interface {
	Format() Format
	// Extract returns ok=false when the strategy found nothing usable.
	Extract(text string) (Fields, bool)
}

// DefaultStrategies returns the cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		canonicalStrategy{},
		jsonStrategy{},
		markdownStrategy{},
		heuristicStrategy{},
	}
}

// Extractor runs an ordered cascade of strategies.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor creates an extractor over the given strategies. With no
// strategies the default cascade is used.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// Extract runs the cascade. When no strategy matches, the result is a
// heuristic result with no fields and no cleaned body.
func (e *Extractor) Extract(text string) Fields {
	for _, s := range e.strategies {
		if fields, ok := s.Extract(text); ok {
			fields.FormatDetected = s.Format()
			return withLengths(fields, text)
		}
	}
	return withLengths(Fields{FormatDetected: FormatHeuristic}, text)
}

var defaultExtractor = NewExtractor()

// Extract runs the default cascade over text.
func Extract(text string) Fields {
	return defaultExtractor.Extract(text)
}

func withLengths(f Fields, raw string) Fields {
	f.RawLength = utf8.RuneCountInString(raw)
	f.BodyLength = utf8.RuneCountInString(f.CleanedBody)
	f.TitleLength = utf8.RuneCountInString(f.PostTitle)
	f.ExcerptLength = utf8.RuneCountInString(f.PostExcerpt)
	return f
}
