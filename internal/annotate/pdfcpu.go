package annotate

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/readmark/readmark/internal/model"
)

// annotationTitle is the author label viewers show for our annotations.
const annotationTitle = "readmark"

// noteIconOffset shifts a note's icon left of its highlight so the icon
// does not cover the highlighted text.
const noteIconOffset = 26.0

// noteIconSize is the edge length of the text-annotation icon box.
const noteIconSize = 20.0

// namedColors maps highlight color tags to annotation colors.
var namedColors = map[string]color.SimpleColor{
	"yellow": {R: 1.0, G: 0.9, B: 0.3},
	"green":  {R: 0.5, G: 0.9, B: 0.4},
	"blue":   {R: 0.4, G: 0.7, B: 1.0},
	"red":    {R: 1.0, G: 0.5, B: 0.5},
	"purple": {R: 0.8, G: 0.6, B: 1.0},
}

// PDFWriter writes annotations with pdfcpu.
type PDFWriter struct {
	conf   *pdfmodel.Configuration
	logger *slog.Logger
}

// Option configures a PDFWriter.
type Option func(*PDFWriter)

// WithLogger sets a custom logger for annotation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *PDFWriter) {
		w.logger = logger
	}
}

// NewPDFWriter creates a pdfcpu-backed annotation writer.
func NewPDFWriter(opts ...Option) *PDFWriter {
	w := &PDFWriter{conf: pdfmodel.NewDefaultConfiguration()}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Apply writes a copy of the PDF at inPath to outPath with every
// annotation drawn in. Renderers for all annotations are collected
// first and written in a single pass, so highlight-heavy books do not
// pay a full-file rewrite per annotation. An annotation that cannot be
// rendered is logged and skipped; the rest still go in.
func (w *PDFWriter) Apply(inPath, outPath string, annotations []Annotation) (int, error) {
	byPage := make(map[int][]pdfmodel.AnnotationRenderer)
	written := 0
	var lastErr error
	for i, ann := range annotations {
		rendered, err := render(i, ann)
		if err != nil {
			w.logger.Warn("annotation skipped",
				"page", firstPage(ann),
				"contents", ann.Contents,
				"error", err,
			)
			lastErr = err
			continue
		}
		for page, rs := range rendered {
			byPage[page] = append(byPage[page], rs...)
		}
		written++
	}

	// pdfcpu rejects an empty annotation map, and the pipeline still
	// expects an output file. Fall back to a plain copy.
	if len(byPage) == 0 {
		if err := copyFile(inPath, outPath); err != nil {
			return 0, fmt.Errorf("stage annotated copy: %w", err)
		}
		return 0, lastErr
	}

	if err := api.AddAnnotationsMapFile(inPath, outPath, byPage, w.conf, false); err != nil {
		return 0, fmt.Errorf("write annotations: %w", err)
	}
	return written, lastErr
}

// render builds one annotation's renderers keyed by page number: a
// highlight markup per page covering that page's rectangles, plus a
// text annotation when a note is attached.
func render(seq int, ann Annotation) (map[int][]pdfmodel.AnnotationRenderer, error) {
	if len(ann.Rects) == 0 {
		return nil, fmt.Errorf("annotation without rectangles")
	}
	col := colorFor(ann.Color)

	out := make(map[int][]pdfmodel.AnnotationRenderer)
	for _, page := range groupByPage(ann.Rects) {
		bounds := page.rects[0]
		var quads types.QuadPoints
		for _, r := range page.rects {
			bounds = bounds.Union(r)
			quads.AddQuadLiteral(quadFor(r))
		}

		hl := pdfmodel.NewHighlightAnnotation(
			*pdfRect(bounds),
			0,
			ann.Contents,
			fmt.Sprintf("readmark-%d-%d", seq, page.number),
			"",
			0,
			&col,
			0, 0, 0,
			annotationTitle,
			nil,
			nil,
			"", "",
			quads,
		)
		out[page.number] = append(out[page.number], hl)
	}

	if ann.Note != "" {
		note, page := noteFor(seq, ann, col)
		out[page] = append(out[page], note)
	}
	return out, nil
}

// noteFor builds the note icon just left of the highlight's first line
// and returns it with the page it belongs on.
func noteFor(seq int, ann Annotation, col color.SimpleColor) (pdfmodel.TextAnnotation, int) {
	first := ann.Rects[0]
	r := types.NewRectangle(
		first.Rect.Llx-noteIconOffset,
		first.Rect.Ury-noteIconSize,
		first.Rect.Llx-noteIconOffset+noteIconSize,
		first.Rect.Ury,
	)

	note := pdfmodel.NewTextAnnotation(
		*r,
		0,
		ann.Note,
		fmt.Sprintf("readmark-note-%d", seq),
		"",
		0,
		&col,
		annotationTitle,
		nil,
		nil,
		"", "",
		0, 0, 0,
		false,
		"Comment",
	)
	return note, first.Page
}

// pageRects is one page's share of an annotation's rectangles.
type pageRects struct {
	number int
	rects  []model.Rect
}

// groupByPage splits rectangles into per-page runs, preserving order.
func groupByPage(rects []model.PageRectangle) []pageRects {
	var groups []pageRects
	for _, pr := range rects {
		if n := len(groups); n > 0 && groups[n-1].number == pr.Page {
			groups[n-1].rects = append(groups[n-1].rects, pr.Rect)
			continue
		}
		groups = append(groups, pageRects{number: pr.Page, rects: []model.Rect{pr.Rect}})
	}
	return groups
}

// quadFor converts one line rectangle to the counter-clockwise quad a
// text markup annotation expects.
func quadFor(r model.Rect) types.QuadLiteral {
	return *types.NewQuadLiteralForRect(pdfRect(r))
}

// pdfRect converts a word-space rectangle to pdfcpu's rectangle type.
func pdfRect(r model.Rect) *types.Rectangle {
	return types.NewRectangle(r.Llx, r.Lly, r.Urx, r.Ury)
}

// colorFor resolves a color tag to an annotation color: a known name,
// a #rrggbb literal, or the yellow default.
func colorFor(tag string) color.SimpleColor {
	if c, ok := namedColors[strings.ToLower(tag)]; ok {
		return c
	}
	if c, ok := parseHex(tag); ok {
		return c
	}
	return namedColors["yellow"]
}

// parseHex parses a #rrggbb color literal.
func parseHex(tag string) (color.SimpleColor, bool) {
	if len(tag) != 7 || tag[0] != '#' {
		return color.SimpleColor{}, false
	}
	v, err := strconv.ParseUint(tag[1:], 16, 32)
	if err != nil {
		return color.SimpleColor{}, false
	}
	return color.SimpleColor{
		R: float32(v>>16&0xff) / 255,
		G: float32(v>>8&0xff) / 255,
		B: float32(v&0xff) / 255,
	}, true
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}

// firstPage returns the page of an annotation's first rectangle, zero
// when it has none. Log context only.
func firstPage(ann Annotation) int {
	if len(ann.Rects) == 0 {
		return 0
	}
	return ann.Rects[0].Page
}
