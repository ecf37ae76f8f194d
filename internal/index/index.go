package index

import (
	"sort"
	"strings"

	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/normalize"
)

// Word is one extracted word with its bounding rectangle, as produced
// by the document extractor.
type Word struct {
	// Text is the word as extracted, original casing and all.
	Text string

	// Rect bounds the word in page coordinates.
	Rect model.Rect
}

// PageWords is the extractor's output for one page: words in reading
// order. A page with no extractable text has zero words; the index
// degrades gracefully and matches simply cannot land there.
type PageWords struct {
	// Number is the 1-based page number.
	Number int

	// Words in reading order. Rectangles are non-overlapping per word.
	Words []Word
}

// token is one indexed word: its normalized key, geometry, and its
// start offset in the logical stream.
type token struct {
	key   string
	text  string
	page  int
	rect  model.Rect
	start int
}

// Index is the searchable representation of one document.
// Build it once per document; it is immutable afterward and safe for
// concurrent reads. Searching never consumes anything: overlapping and
// duplicate highlights resolve independently against the same index.
type Index struct {
	tokens []token
	stream string
	pages  int
}

// Build constructs an Index from extracted pages.
//
// Every word is normalized; words that normalize to nothing (pure
// whitespace or invisible characters) are dropped so the logical stream
// contains only comparable text. Token order follows the extractor's
// reading order, and pages concatenate in sequence, so a phrase split
// across a page break is contiguous in the stream.
func Build(pages []PageWords) *Index {
	idx := &Index{pages: len(pages)}

	var sb strings.Builder
	for _, page := range pages {
		for _, w := range page.Words {
			key := normalize.Fold(w.Text)
			if key == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			idx.tokens = append(idx.tokens, token{
				key:   key,
				text:  w.Text,
				page:  page.Number,
				rect:  w.Rect,
				start: sb.Len(),
			})
			sb.WriteString(key)
		}
	}
	idx.stream = sb.String()
	return idx
}

// Stream returns the normalized logical stream: all pages' token keys
// joined by single spaces.
func (idx *Index) Stream() string {
	return idx.stream
}

// PageCount returns the number of pages the index was built from,
// including pages that contributed no tokens.
func (idx *Index) PageCount() int {
	return idx.pages
}

// TokenCount returns the number of indexed words.
func (idx *Index) TokenCount() int {
	return len(idx.tokens)
}

// TokenKey returns the normalized key of token i.
func (idx *Index) TokenKey(i int) string {
	return idx.tokens[i].key
}

// TokenPage returns the 1-based page number of token i.
func (idx *Index) TokenPage(i int) int {
	return idx.tokens[i].page
}

// TokenStart returns the logical-stream offset where token i begins.
func (idx *Index) TokenStart(i int) int {
	return idx.tokens[i].start
}

// WindowText returns the stream slice covering tokens [i, i+n).
// It is the exact text an approximate-match window is scored against.
func (idx *Index) WindowText(i, n int) string {
	if n <= 0 || i < 0 || i+n > len(idx.tokens) {
		return ""
	}
	last := idx.tokens[i+n-1]
	return idx.stream[idx.tokens[i].start : last.start+len(last.key)]
}

// TokenAt returns the index of the token spanning the given stream
// offset. The boolean is false when the offset falls outside the stream.
func (idx *Index) TokenAt(offset int) (int, bool) {
	if len(idx.tokens) == 0 || offset < 0 || offset >= len(idx.stream) {
		return 0, false
	}
	// First token starting after offset; the one before it spans offset.
	i := sort.Search(len(idx.tokens), func(i int) bool {
		return idx.tokens[i].start > offset
	})
	return i - 1, true
}

// BoundaryAligned reports whether the half-open stream range [start, end)
// begins and ends on token boundaries. Exact matches are only accepted on
// aligned ranges so that fragment text re-normalizes to exactly the
// highlight text.
func (idx *Index) BoundaryAligned(start, end int) bool {
	if start < 0 || end > len(idx.stream) || start >= end {
		return false
	}
	if start > 0 && idx.stream[start-1] != ' ' {
		return false
	}
	if end < len(idx.stream) && idx.stream[end] != ' ' {
		return false
	}
	return true
}

// Span resolves the half-open stream range [start, end) to fragments:
// one per contiguous run of tokens on the same page. More than one
// fragment comes back only when the range crosses a page break.
func (idx *Index) Span(start, end int) []model.Fragment {
	first, ok := idx.TokenAt(start)
	if !ok {
		return nil
	}
	last, ok := idx.TokenAt(end - 1)
	if !ok {
		return nil
	}
	return idx.TokenSpan(first, last)
}

// TokenSpan resolves the inclusive token range [first, last] to
// per-page fragments.
func (idx *Index) TokenSpan(first, last int) []model.Fragment {
	if first < 0 || last >= len(idx.tokens) || first > last {
		return nil
	}

	var fragments []model.Fragment
	for i := first; i <= last; i++ {
		tok := idx.tokens[i]
		box := model.WordBox{Text: tok.key, Rect: tok.rect}
		if n := len(fragments); n > 0 && fragments[n-1].Page == tok.page {
			fragments[n-1].Words = append(fragments[n-1].Words, box)
			continue
		}
		fragments = append(fragments, model.Fragment{
			Page:  tok.page,
			Words: []model.WordBox{box},
		})
	}
	return fragments
}
