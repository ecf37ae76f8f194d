package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/readmark/readmark/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showMatched controls whether fully matched books print their
	// empty unmatched sections.
	showMatched bool

	// verbose enables per-highlight confidence detail.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowMatched configures the writer to print sections even when
// every highlight anchored cleanly.
func WithShowMatched(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showMatched = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showMatched: false,
		verbose:     false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one book's report in human-readable format.
func (w *SimpleWriter) Write(report *model.CitationReport) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, report)
	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs several books' reports in one document.
func (w *SimpleWriter) WriteAll(reports []*model.CitationReport) (int, error) {
	var sb strings.Builder
	for _, report := range reports {
		w.writeReport(&sb, report)
	}
	w.writeTotals(&sb, reports)
	return w.output.Write([]byte(sb.String()))
}

// writeReport writes one book's full report.
func (w *SimpleWriter) writeReport(sb *strings.Builder, report *model.CitationReport) {
	w.writeHeader(sb, report)
	w.writeSummary(sb, report)
	w.writeUnmatched(sb, report)
	w.writePartial(sb, report)
}

// writeHeader writes the report header with book information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CitationReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Book:     %s\n", report.BookTitle))
	sb.WriteString(fmt.Sprintf("Verified: %s\n", report.DateVerified.Format("2006-01-02 15:04:05 MST")))

	if report.Complete() {
		sb.WriteString("Status:   COMPLETE - every highlight anchored\n")
	} else {
		sb.WriteString(fmt.Sprintf("Status:   INCOMPLETE - %d highlight(s) need attention\n",
			report.Unmatched+report.Partial))
	}
	sb.WriteString("\n")
}

// writeSummary writes the match tally section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CitationReport) {
	sb.WriteString(fmt.Sprintf("  MATCHED:   %d\n", report.Matched))
	sb.WriteString(fmt.Sprintf("  PARTIAL:   %d\n", report.Partial))
	sb.WriteString(fmt.Sprintf("  UNMATCHED: %d\n", report.Unmatched))
	sb.WriteString(fmt.Sprintf("  TOTAL:     %d highlights\n", report.Total))
	sb.WriteString("\n")
}

// writeUnmatched lists highlights that could not be anchored.
func (w *SimpleWriter) writeUnmatched(sb *strings.Builder, report *model.CitationReport) {
	if len(report.UnmatchedHighlights) == 0 && !w.showMatched {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("UNMATCHED HIGHLIGHTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if len(report.UnmatchedHighlights) == 0 {
		sb.WriteString("  none\n")
	}
	for _, h := range report.UnmatchedHighlights {
		w.writeDigest(sb, h)
	}
	sb.WriteString("\n")
}

// writePartial lists approximate matches for manual review.
func (w *SimpleWriter) writePartial(sb *strings.Builder, report *model.CitationReport) {
	if len(report.PartialHighlights) == 0 && !w.showMatched {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PARTIAL MATCHES (review recommended)\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if len(report.PartialHighlights) == 0 {
		sb.WriteString("  none\n")
	}
	for _, h := range report.PartialHighlights {
		w.writeDigest(sb, h)
	}
	sb.WriteString("\n")
}

// writeDigest writes one highlight digest line.
func (w *SimpleWriter) writeDigest(sb *strings.Builder, h model.HighlightDigest) {
	if h.Page > 0 {
		sb.WriteString(fmt.Sprintf("  * [p.%d] %s\n", h.Page, h.Text))
	} else {
		sb.WriteString(fmt.Sprintf("  * %s\n", h.Text))
	}
	if w.verbose && h.Confidence > 0 {
		sb.WriteString(fmt.Sprintf("    confidence: %.2f\n", h.Confidence))
	}
}

// writeTotals writes a summary line across all books.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, reports []*model.CitationReport) {
	var matched, total, incomplete int
	for _, r := range reports {
		matched += r.Matched
		total += r.Total
		if !r.Complete() {
			incomplete++
		}
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d book(s), %d/%d highlights fully matched, %d book(s) incomplete\n",
		len(reports), matched, total, incomplete))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
