package database

import (
	"context"
	"testing"
	"time"

	"github.com/readmark/readmark/internal/model"
)

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *AnchorDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// sampleReport builds a report for the given title.
func sampleReport(title string) *model.CitationReport {
	return &model.CitationReport{
		BookTitle:    title,
		Matched:      8,
		Partial:      1,
		Unmatched:    1,
		Total:        10,
		DateVerified: time.Now(),
		UnmatchedHighlights: []model.HighlightDigest{
			{Text: "missing passage", Page: 12},
		},
	}
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database when allowed", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()
	})

	t.Run("fails when database missing and creation disabled", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

// TestSaveAndGetLatestRun tests the basic round trip.
func TestSaveAndGetLatestRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveRun(ctx, sampleReport("Walden"), "ReadEra_2026.bak"); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.GetLatestRun(ctx, "Walden")
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored run")
	}
	if got.BookTitle != "Walden" || got.Total != 10 || got.Unmatched != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.UnmatchedHighlights) != 1 {
		t.Errorf("expected 1 unmatched digest, got %d", len(got.UnmatchedHighlights))
	}
}

// TestGetLatestRunNormalizesTitle tests accent and case insensitive lookup.
func TestGetLatestRunNormalizesTitle(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveRun(ctx, sampleReport("Éducation Sentimentale"), ""); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.GetLatestRun(ctx, "education sentimentale")
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected folded-title lookup to find the run")
	}
	if got.BookTitle != "Éducation Sentimentale" {
		t.Errorf("BookTitle = %q", got.BookTitle)
	}
}

// TestGetLatestRunUnknownBook tests lookup of a never-processed book.
func TestGetLatestRunUnknownBook(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	got, err := db.GetLatestRun(context.Background(), "No Such Book")
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown book, got %+v", got)
	}
}

// TestGetRunHistory tests that history accumulates newest first.
func TestGetRunHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	first := sampleReport("Walden")
	first.Unmatched = 3
	first.Matched = 6
	if err := db.SaveRun(ctx, first, ""); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	// SQLite's CURRENT_TIMESTAMP has second resolution; make the
	// ordering deterministic.
	time.Sleep(1100 * time.Millisecond)

	second := sampleReport("Walden")
	if err := db.SaveRun(ctx, second, ""); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	history, err := db.GetRunHistory(ctx, "walden")
	if err != nil {
		t.Fatalf("GetRunHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].Unmatched != 1 || history[1].Unmatched != 3 {
		t.Errorf("history not newest first: %d then %d unmatched",
			history[0].Unmatched, history[1].Unmatched)
	}
}

// TestGetRunHistoryWithMetadata tests the lightweight history view.
func TestGetRunHistoryWithMetadata(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveRun(ctx, sampleReport("Walden"), "ReadEra_2026.bak"); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	metas, err := db.GetRunHistoryWithMetadata(ctx, "Walden")
	if err != nil {
		t.Fatalf("GetRunHistoryWithMetadata() error = %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 run, got %d", len(metas))
	}

	meta := metas[0]
	if meta.BookTitle != "Walden" || meta.BackupFile != "ReadEra_2026.bak" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Total != 10 || meta.Matched != 8 || meta.Partial != 1 || meta.Unmatched != 1 {
		t.Errorf("tallies mismatch: %+v", meta)
	}
	if meta.ID == 0 {
		t.Error("expected non-zero run ID")
	}
}

// TestGetRunByID tests direct ID lookup.
func TestGetRunByID(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveRun(ctx, sampleReport("Walden"), ""); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	metas, err := db.GetRunHistoryWithMetadata(ctx, "Walden")
	if err != nil {
		t.Fatalf("GetRunHistoryWithMetadata() error = %v", err)
	}

	got, err := db.GetRunByID(ctx, metas[0].ID)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if got == nil || got.BookTitle != "Walden" {
		t.Errorf("GetRunByID() = %+v", got)
	}

	missing, err := db.GetRunByID(ctx, 99999)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown ID")
	}
}

// TestListBooks tests the distinct title listing.
func TestListBooks(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"Walden", "The Odyssey", "Walden"} {
		if err := db.SaveRun(ctx, sampleReport(title), ""); err != nil {
			t.Fatalf("SaveRun(%q) error = %v", title, err)
		}
	}

	books, err := db.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d: %v", len(books), books)
	}
	if books[0] != "The Odyssey" || books[1] != "Walden" {
		t.Errorf("unexpected order: %v", books)
	}
}

// TestParseTimestamp tests the timestamp fallback parser.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"2026-03-14 09:30:00", true},
		{"2026-03-14T09:30:00Z", true},
		{"2026-03-14T09:30:00", true},
		{"not a timestamp", false},
		{"", false},
	}
	for _, tt := range tests {
		got := parseTimestamp(tt.input)
		if tt.valid && got.IsZero() {
			t.Errorf("parseTimestamp(%q) returned zero time", tt.input)
		}
		if !tt.valid && !got.IsZero() {
			t.Errorf("parseTimestamp(%q) = %v, want zero time", tt.input, got)
		}
	}
}
