package annotate

import (
	"github.com/readmark/readmark/internal/model"
)

// Annotation is one highlight's worth of drawing: its rectangles (one
// per visual line), the color tag, and the optional attached note.
type Annotation struct {
	// Rects are the drawable rectangles, in reading order.
	Rects []model.PageRectangle

	// Color is the highlight's color tag ("yellow", "green", ...).
	Color string

	// Note is the user's attached note, drawn as a text annotation near
	// the first rectangle when non-empty.
	Note string

	// Contents labels the annotation in PDF viewers; the highlight's
	// truncated text works well here.
	Contents string
}

// Writer draws annotations into a PDF file. Implementations report how
// many annotations were written; a failure on one annotation must not
// prevent the rest from being attempted.
type Writer interface {
	// Apply copies the PDF at inPath to outPath with the annotations
	// drawn in. It returns the number of annotations written and the
	// last error encountered, if any.
	Apply(inPath, outPath string, annotations []Annotation) (int, error)
}
