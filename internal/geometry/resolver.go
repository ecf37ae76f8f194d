package geometry

import (
	"errors"

	"github.com/readmark/readmark/internal/model"
)

// ErrNoGeometry is returned when a matched span maps to zero usable
// rectangles (every word box degenerate). Callers downgrade the match
// to unmatched with a logged reason rather than treating this as fatal.
var ErrNoGeometry = errors.New("matched span resolves to no usable rectangles")

// lineOverlapRatio is the minimum vertical overlap, as a fraction of the
// shorter box's height, for two word boxes to count as the same visual
// line. Baselines wobble slightly within a line; half-height overlap
// separates lines reliably at any font size.
const lineOverlapRatio = 0.5

// Resolve converts a match result into drawable page rectangles, one per
// visual line per page. Unmatched results resolve to nil without error.
// Matched or partial results whose word boxes are all degenerate return
// ErrNoGeometry.
func Resolve(res *model.MatchResult) ([]model.PageRectangle, error) {
	if res == nil || res.Status == model.StatusUnmatched {
		return nil, nil
	}

	var rects []model.PageRectangle
	for _, frag := range res.Fragments {
		for _, line := range splitLines(frag.Words) {
			merged := line[0].Rect
			for _, w := range line[1:] {
				merged = merged.Union(w.Rect)
			}
			rects = append(rects, model.PageRectangle{Page: frag.Page, Rect: merged})
		}
	}

	if len(rects) == 0 {
		return nil, ErrNoGeometry
	}
	return rects, nil
}

// splitLines groups a fragment's words into visual lines. Words arrive
// in reading order, so a line break is simply the first word that no
// longer vertically overlaps the current line. Degenerate boxes are
// dropped before grouping.
func splitLines(words []model.WordBox) [][]model.WordBox {
	var lines [][]model.WordBox
	for _, w := range words {
		if w.Rect.IsZero() {
			continue
		}
		if n := len(lines); n > 0 && sameLine(lines[n-1][len(lines[n-1])-1].Rect, w.Rect) {
			lines[n-1] = append(lines[n-1], w)
			continue
		}
		lines = append(lines, []model.WordBox{w})
	}
	return lines
}

// sameLine reports whether two word boxes share a visual line.
func sameLine(a, b model.Rect) bool {
	overlap := min(a.Ury, b.Ury) - max(a.Lly, b.Lly)
	if overlap <= 0 {
		return false
	}
	shorter := min(a.Height(), b.Height())
	return overlap >= lineOverlapRatio*shorter
}
