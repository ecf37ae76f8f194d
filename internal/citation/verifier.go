package citation

import (
	"time"

	"github.com/readmark/readmark/internal/model"
)

// Verify tallies the match results for one book into a CitationReport.
// Every result lands in exactly one bucket, so matched + partial +
// unmatched always equals the number of results. Unmatched and partial
// highlights are recorded with truncated original text so a user can
// locate the passage manually.
func Verify(book *model.Book, results []*model.MatchResult) *model.CitationReport {
	report := &model.CitationReport{
		Total:        len(results),
		DateVerified: time.Now(),
	}
	if book != nil {
		report.BookTitle = book.Title
	}

	for _, res := range results {
		switch res.Status {
		case model.StatusMatched:
			report.Matched++
		case model.StatusPartial:
			report.Partial++
			report.PartialHighlights = append(report.PartialHighlights, digest(res))
		case model.StatusUnmatched:
			report.Unmatched++
			report.UnmatchedHighlights = append(report.UnmatchedHighlights, digest(res))
		}
	}
	return report
}

// digest extracts the diagnostic view of one result's highlight.
func digest(res *model.MatchResult) model.HighlightDigest {
	d := model.HighlightDigest{Confidence: res.Confidence}
	if res.Highlight != nil {
		d.Text = model.Truncate(res.Highlight.Text)
		d.Page = res.Highlight.Hint.Page
	}
	return d
}
