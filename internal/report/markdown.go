package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/readmark/readmark/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one book's report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CitationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeReport(md, report)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteAll outputs reports for several books in one document.
func (w *MarkdownWriter) WriteAll(reports []*model.CitationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	for _, report := range reports {
		w.writeReport(md, report)
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeReport writes one book's sections.
func (w *MarkdownWriter) writeReport(md *markdown.Markdown, report *model.CitationReport) {
	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeHighlights(md, report)
}

// writeHeader writes the report header with book information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CitationReport) {
	md.H1(report.BookTitle)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Verified", report.DateVerified.Format("2006-01-02 15:04:05 MST")},
			{"Highlights", strconv.Itoa(report.Total)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CitationReport) string {
	if report.Complete() {
		return "✅ Complete"
	}
	return "⚠️ Incomplete - " + strconv.Itoa(report.Unmatched+report.Partial) + " highlight(s) need attention"
}

// writeSummary writes the match tally section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CitationReport) {
	md.H2("Match Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Matched", strconv.Itoa(report.Matched)},
			{"🟡 Partial", strconv.Itoa(report.Partial)},
			{"🔴 Unmatched", strconv.Itoa(report.Unmatched)},
			{"**Total**", "**" + strconv.Itoa(report.Total) + "**"},
		},
	})
	md.PlainText("")

	if report.Total > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for match distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CitationReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Highlight Match Distribution"),
		piechart.WithShowData(true),
	)

	if report.Matched > 0 {
		chart.LabelAndIntValue("Matched", uint64(report.Matched))
	}
	if report.Partial > 0 {
		chart.LabelAndIntValue("Partial", uint64(report.Partial))
	}
	if report.Unmatched > 0 {
		chart.LabelAndIntValue("Unmatched", uint64(report.Unmatched))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on match counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CitationReport) {
	switch {
	case report.Unmatched > 0:
		md.Warningf(
			"%d highlight(s) could not be anchored in the PDF. Their annotations are missing.",
			report.Unmatched,
		)
	case report.Partial > 0:
		md.Importantf(
			"%d highlight(s) matched approximately. Review the placements below.",
			report.Partial,
		)
	default:
		md.Tip("Every highlight anchored exactly.")
	}
	md.PlainText("")
}

// writeHighlights writes unmatched and partial highlight tables.
func (w *MarkdownWriter) writeHighlights(md *markdown.Markdown, report *model.CitationReport) {
	if len(report.UnmatchedHighlights) > 0 {
		md.H2("Unmatched Highlights")
		md.PlainText("")
		w.writeDigestTable(md, report.UnmatchedHighlights, false)
	}

	if len(report.PartialHighlights) > 0 {
		md.H2("Partial Matches")
		md.PlainText("")
		w.writeDigestTable(md, report.PartialHighlights, true)
	}
}

// writeDigestTable writes a table of highlight digests.
func (w *MarkdownWriter) writeDigestTable(md *markdown.Markdown, digests []model.HighlightDigest, withConfidence bool) {
	headers := []string{"Page", "Text"}
	if withConfidence {
		headers = append(headers, "Confidence")
	}

	rows := make([][]string, len(digests))
	for i, d := range digests {
		page := "-"
		if d.Page > 0 {
			page = strconv.Itoa(d.Page)
		}
		row := []string{page, d.Text}
		if withConfidence {
			row = append(row, strconv.FormatFloat(d.Confidence, 'f', 2, 64))
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by readmark*")
}
