package model

import (
	"time"
	"unicode/utf8"
)

// TruncateAt is the display length for highlight text in diagnostics.
// Long passages are cut to this many runes so report lines stay readable
// while leaving enough text to locate the passage manually.
const TruncateAt = 80

// HighlightDigest is the truncated view of a highlight used in report
// listings for unmatched and partial entries.
type HighlightDigest struct {
	// Text is the original highlight text, truncated for display.
	Text string `json:"text"`

	// Page is the provenance page hint, zero when absent.
	Page int `json:"page,omitempty"`

	// Confidence is the best similarity found (zero for unmatched).
	Confidence float64 `json:"confidence,omitempty"`
}

// CitationReport is the per-book completeness report: the fate of every
// highlight processed in one run. Built fresh per verification run and
// never persisted as-is (the history database stores only summaries).
type CitationReport struct {
	// BookTitle identifies the book the report covers.
	BookTitle string `json:"book_title"`

	// Matched, Partial and Unmatched are the per-status tallies.
	// Their sum always equals Total.
	Matched   int `json:"matched"`
	Partial   int `json:"partial"`
	Unmatched int `json:"unmatched"`

	// Total is the number of highlights processed.
	Total int `json:"total"`

	// UnmatchedHighlights lists every unmatched highlight with enough
	// original text to locate the passage manually.
	UnmatchedHighlights []HighlightDigest `json:"unmatched_highlights,omitempty"`

	// PartialHighlights lists approximate matches for manual review.
	PartialHighlights []HighlightDigest `json:"partial_highlights,omitempty"`

	// DateVerified is when the report was built.
	DateVerified time.Time `json:"date_verified"`
}

// Complete reports whether every highlight anchored exactly.
func (r *CitationReport) Complete() bool {
	return r.Total > 0 && r.Matched == r.Total
}

// Truncate cuts s to TruncateAt runes, appending an ellipsis when cut.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= TruncateAt {
		return s
	}
	runes := []rune(s)
	return string(runes[:TruncateAt]) + "…"
}
