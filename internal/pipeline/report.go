package pipeline

import (
	"time"

	"github.com/readmark/readmark/internal/annotate"
	"github.com/readmark/readmark/internal/index"
	"github.com/readmark/readmark/internal/model"
)

// BookReport accumulates everything the pipeline learns about one book.
// Steps read the fields earlier steps filled in and add their own.
type BookReport struct {
	// Book is the library entry being processed, highlights included.
	Book model.Book

	// BookPath is the source ebook file on disk.
	BookPath string

	// PDFPath is the PDF rendition, either BookPath itself or the
	// converter's output.
	PDFPath string

	// OutputPath is where the annotated PDF is written.
	OutputPath string

	// Pages holds the extracted words per page.
	Pages []index.PageWords

	// Index is the searchable text index built from Pages.
	Index *index.Index

	// Matches holds one result per highlight, in highlight order.
	Matches []*model.MatchResult

	// Annotations holds the drawable annotations resolved from Matches.
	Annotations []annotate.Annotation

	// AnnotationsWritten counts annotations that made it into the PDF.
	AnnotationsWritten int

	// Citation is the completeness report produced by verification.
	Citation *model.CitationReport

	// Error holds the first step error when processing failed.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// TimedOut reports whether processing was cancelled.
	TimedOut bool

	// DateProcessed records when the pipeline started on this book.
	DateProcessed time.Time
}

// NewBookReport creates a report for one book.
func NewBookReport(book model.Book, bookPath string) *BookReport {
	return &BookReport{
		Book:          book,
		BookPath:      bookPath,
		DateProcessed: time.Now(),
	}
}
