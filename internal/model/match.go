package model

import (
	"math"
	"strings"
)

// MatchStatus classifies the outcome of anchoring one highlight.
type MatchStatus string

// Match outcomes. NoMatchFound is not an error anywhere in readmark;
// it is always represented as StatusUnmatched.
const (
	// StatusMatched means the normalized highlight text was found verbatim
	// in the document's logical stream.
	StatusMatched MatchStatus = "matched"

	// StatusPartial means an approximate alignment above the similarity
	// threshold was accepted.
	StatusPartial MatchStatus = "partial"

	// StatusUnmatched means no acceptable location was found.
	StatusUnmatched MatchStatus = "unmatched"
)

// Rect is an axis-aligned rectangle in PDF page coordinates
// (origin bottom-left, units are points).
type Rect struct {
	Llx float64 `json:"llx"`
	Lly float64 `json:"lly"`
	Urx float64 `json:"urx"`
	Ury float64 `json:"ury"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Urx - r.Llx }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Ury - r.Lly }

// IsZero reports whether the rectangle has no usable area.
func (r Rect) IsZero() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Llx: math.Min(r.Llx, other.Llx),
		Lly: math.Min(r.Lly, other.Lly),
		Urx: math.Max(r.Urx, other.Urx),
		Ury: math.Max(r.Ury, other.Ury),
	}
}

// WordBox is one extracted word together with its bounding rectangle.
type WordBox struct {
	// Text is the word's normalized comparison form.
	Text string `json:"text"`

	// Rect bounds the word on its page.
	Rect Rect `json:"rect"`
}

// Fragment is a contiguous run of matched words confined to a single page.
// A match produces more than one fragment only when it spans a page break.
type Fragment struct {
	// Page is the 1-based page number the fragment lies on.
	Page int `json:"page"`

	// Words are the matched words in reading order, each with geometry.
	// The geometry resolver merges these into per-line rectangles.
	Words []WordBox `json:"words"`
}

// Text returns the fragment's words joined by single spaces.
func (f Fragment) Text() string {
	parts := make([]string, len(f.Words))
	for i, w := range f.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// PageRectangle is one drawable rectangle on one page, ready to hand to
// the annotation writer. A multi-line highlight yields one per visual line.
type PageRectangle struct {
	Page int  `json:"page"`
	Rect Rect `json:"rect"`
}

// MatchResult records where (if anywhere) one highlight was anchored.
// It is created by the matcher and never mutated afterward.
type MatchResult struct {
	// Highlight is the record this result belongs to.
	Highlight *Highlight `json:"highlight"`

	// Fragments locate the matched text, in stream order.
	// Empty when Status is StatusUnmatched.
	Fragments []Fragment `json:"fragments,omitempty"`

	// Confidence is 1.0 for exact matches, the similarity score for
	// partial matches, and 0 for unmatched.
	Confidence float64 `json:"confidence"`

	// Status classifies the outcome.
	Status MatchStatus `json:"status"`

	// Reason explains an unmatched (or downgraded) outcome for diagnostics.
	Reason string `json:"reason,omitempty"`
}

// Unmatched constructs an unmatched result with a diagnostic reason.
func Unmatched(h *Highlight, reason string) *MatchResult {
	return &MatchResult{
		Highlight: h,
		Status:    StatusUnmatched,
		Reason:    reason,
	}
}

// Text returns all fragment texts joined by single spaces.
func (m *MatchResult) Text() string {
	parts := make([]string, len(m.Fragments))
	for i, f := range m.Fragments {
		parts[i] = f.Text()
	}
	return strings.Join(parts, " ")
}

// Pages returns the distinct page numbers the result touches, in order.
func (m *MatchResult) Pages() []int {
	pages := make([]int, 0, len(m.Fragments))
	for _, f := range m.Fragments {
		if len(pages) == 0 || pages[len(pages)-1] != f.Page {
			pages = append(pages, f.Page)
		}
	}
	return pages
}
