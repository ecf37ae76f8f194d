package extract

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rsc.io/pdf"

	"github.com/readmark/readmark/internal/index"
	"github.com/readmark/readmark/internal/model"
)

// Word-assembly geometry constants, in fractions of the font size.
const (
	// wordGapRatio is the horizontal gap beyond which two runs belong to
	// different words. Intra-word kerning gaps stay well under a quarter em.
	wordGapRatio = 0.25

	// ascentRatio and descentRatio extend a word's box above and below
	// its baseline so highlight rectangles cover the full glyph height.
	ascentRatio  = 0.75
	descentRatio = 0.25

	// lineSlackRatio is the vertical distance, relative to font size,
	// within which two runs count as the same line despite baseline jitter.
	lineSlackRatio = 0.5
)

// Extractor reads positioned words from PDF files.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for extraction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// File extracts every page of the PDF at path. A page the library cannot
// decode contributes zero words — matching against it degrades to
// unmatched or partial for the affected highlights — but never aborts
// the rest of the document.
func (e *Extractor) File(path string) ([]index.PageWords, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	pages := make([]index.PageWords, 0, doc.NumPage())
	for n := 1; n <= doc.NumPage(); n++ {
		words, err := e.page(doc, n)
		if err != nil {
			e.logger.Warn("page has no extractable text",
				"path", path,
				"page", n,
				"error", err,
			)
		}
		pages = append(pages, index.PageWords{Number: n, Words: words})
	}
	return pages, nil
}

// page extracts one page, converting the library's panics on malformed
// content streams into an error so one bad page cannot take down the run.
func (e *Extractor) page(doc *pdf.Reader, n int) (words []index.Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			words, err = nil, fmt.Errorf("decode page %d: %v", n, r)
		}
	}()

	p := doc.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", n)
	}
	return assembleWords(p.Content().Text), nil
}

// assembleWords groups raw text runs into words with bounding boxes.
// Runs are sorted into reading order (top to bottom, then left to
// right), then joined while they stay on one line with no word-sized
// gap between them. Whitespace runs only separate words.
func assembleWords(texts []pdf.Text) []index.Word {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !sameBaseline(a, b) {
			return a.Y > b.Y // PDF origin is bottom-left; higher Y reads first
		}
		return a.X < b.X
	})

	var words []index.Word
	var cur *wordBuilder
	flush := func() {
		if cur != nil && cur.text.Len() > 0 {
			words = append(words, cur.word())
		}
		cur = nil
	}

	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}
		if cur != nil && (!sameBaseline(cur.last, t) || gap(cur.last, t) > wordGapRatio*t.FontSize) {
			flush()
		}
		if cur == nil {
			cur = newWordBuilder(t)
		}
		cur.append(t)
	}
	flush()
	return words
}

// wordBuilder accumulates consecutive runs into one word.
type wordBuilder struct {
	text  strings.Builder
	first pdf.Text
	last  pdf.Text
}

func newWordBuilder(t pdf.Text) *wordBuilder {
	return &wordBuilder{first: t, last: t}
}

func (w *wordBuilder) append(t pdf.Text) {
	w.text.WriteString(t.S)
	w.last = t
}

// word finalizes the accumulated runs into a positioned word.
func (w *wordBuilder) word() index.Word {
	size := w.first.FontSize
	if w.last.FontSize > size {
		size = w.last.FontSize
	}
	return index.Word{
		Text: w.text.String(),
		Rect: model.Rect{
			Llx: w.first.X,
			Lly: w.first.Y - descentRatio*size,
			Urx: w.last.X + w.last.W,
			Ury: w.first.Y + ascentRatio*size,
		},
	}
}

// sameBaseline reports whether two runs sit on one visual line.
func sameBaseline(a, b pdf.Text) bool {
	slack := lineSlackRatio * minSize(a, b)
	d := a.Y - b.Y
	if d < 0 {
		d = -d
	}
	return d <= slack
}

// gap is the horizontal distance from the end of run a to the start of b.
func gap(a, b pdf.Text) float64 {
	return b.X - (a.X + a.W)
}

// minSize returns the smaller font size of two runs, floored at 1 so a
// zero-sized run cannot collapse the line slack to nothing.
func minSize(a, b pdf.Text) float64 {
	s := a.FontSize
	if b.FontSize < s {
		s = b.FontSize
	}
	if s < 1 {
		s = 1
	}
	return s
}
