package citation

import (
	"strings"
	"testing"

	"github.com/readmark/readmark/internal/model"
)

// TestVerify tests status aggregation.
func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("counts sum to total", func(t *testing.T) {
		t.Parallel()

		book := &model.Book{Title: "Walden"}
		results := []*model.MatchResult{
			{Highlight: &model.Highlight{Text: "a"}, Status: model.StatusMatched, Confidence: 1.0},
			{Highlight: &model.Highlight{Text: "b"}, Status: model.StatusMatched, Confidence: 1.0},
			{Highlight: &model.Highlight{Text: "c"}, Status: model.StatusPartial, Confidence: 0.9},
			model.Unmatched(&model.Highlight{Text: "d"}, "not found"),
		}

		report := Verify(book, results)
		if report.BookTitle != "Walden" {
			t.Errorf("got title %q, expected 'Walden'", report.BookTitle)
		}
		if report.Matched != 2 || report.Partial != 1 || report.Unmatched != 1 {
			t.Errorf("got %d/%d/%d, expected 2/1/1", report.Matched, report.Partial, report.Unmatched)
		}
		if report.Matched+report.Partial+report.Unmatched != report.Total {
			t.Errorf("counts do not sum to total %d", report.Total)
		}
	})

	t.Run("unmatched highlights are listed with text", func(t *testing.T) {
		t.Parallel()

		h := &model.Highlight{
			Text: "unrelated passage not in book",
			Hint: model.ProvenanceHint{Page: 42},
		}
		report := Verify(&model.Book{Title: "T"}, []*model.MatchResult{
			model.Unmatched(h, "not found"),
		})

		if len(report.UnmatchedHighlights) != 1 {
			t.Fatalf("got %d unmatched entries, expected 1", len(report.UnmatchedHighlights))
		}
		entry := report.UnmatchedHighlights[0]
		if entry.Text != "unrelated passage not in book" {
			t.Errorf("got %q, expected the original text", entry.Text)
		}
		if entry.Page != 42 {
			t.Errorf("got page %d, expected 42", entry.Page)
		}
	})

	t.Run("long highlight text is truncated for display", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("word ", 40)
		report := Verify(nil, []*model.MatchResult{
			model.Unmatched(&model.Highlight{Text: long}, "not found"),
		})

		got := report.UnmatchedHighlights[0].Text
		if len([]rune(got)) != model.TruncateAt+1 {
			t.Errorf("got %d runes, expected %d plus ellipsis", len([]rune(got)), model.TruncateAt)
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("expected truncated text to end with ellipsis, got %q", got)
		}
	})

	t.Run("empty input yields empty report", func(t *testing.T) {
		t.Parallel()

		report := Verify(&model.Book{Title: "T"}, nil)
		if report.Total != 0 || report.Matched != 0 || report.Partial != 0 || report.Unmatched != 0 {
			t.Errorf("expected all-zero report, got %+v", report)
		}
		if report.Complete() {
			t.Error("empty report must not count as complete")
		}
	})
}
