package backup

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeBackup creates a ReadEra-style backup zip containing the given
// library.json payload and returns its path.
func writeBackup(t *testing.T, dir, name, libraryJSON string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("library.json")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(libraryJSON)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

const sampleLibrary = `{
  "docs": [
    {
      "uri": "doc://1",
      "data": {"doc_title": "Walden", "doc_authors": "Henry David Thoreau"},
      "links": [{"file_name": "walden.epub"}],
      "citations": [
        {"note_body": "second passage", "note_page": 4, "note_index": 0.2, "note_mark": 1},
        {"note_body": "first passage", "note_extra": "my note", "note_page": 1, "note_index": 0.5, "note_insert_time": 1700000000000}
      ]
    },
    {
      "uri": "doc://2",
      "data": {"doc_file_name_title": "untitled-scan"},
      "links": [],
      "citations": []
    }
  ]
}`

// TestRead tests backup container parsing.
func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("parses books and highlights", func(t *testing.T) {
		t.Parallel()

		path := writeBackup(t, t.TempDir(), "ReadEra-2026.bak", sampleLibrary)
		books, err := Read(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(books) != 2 {
			t.Fatalf("got %d books, expected 2", len(books))
		}

		walden := books[0]
		if walden.Title != "Walden" || walden.Author != "Henry David Thoreau" {
			t.Errorf("got %q by %q", walden.Title, walden.Author)
		}
		if walden.FileName != "walden.epub" {
			t.Errorf("got file name %q, expected walden.epub", walden.FileName)
		}
		if len(walden.Highlights) != 2 {
			t.Fatalf("got %d highlights, expected 2", len(walden.Highlights))
		}

		// Sorted by position, not file order.
		first := walden.Highlights[0]
		if first.Text != "first passage" {
			t.Errorf("got %q first, expected 'first passage'", first.Text)
		}
		if first.Note != "my note" {
			t.Errorf("got note %q, expected 'my note'", first.Note)
		}
		if first.Hint.Page != 2 {
			t.Errorf("got hint page %d, expected 2 (0-based reader page +1)", first.Hint.Page)
		}
		if first.CreatedAt.IsZero() {
			t.Error("expected creation timestamp to be set")
		}
		if second := walden.Highlights[1]; second.Color != "green" {
			t.Errorf("got color %q, expected green for mark 1", second.Color)
		}
	})

	t.Run("falls back to file name title", func(t *testing.T) {
		t.Parallel()

		path := writeBackup(t, t.TempDir(), "ReadEra-x.bak", sampleLibrary)
		books, err := Read(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if books[1].Title != "untitled-scan" {
			t.Errorf("got %q, expected fallback title 'untitled-scan'", books[1].Title)
		}
	})

	t.Run("non-zip file is unreadable", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "ReadEra-bad.bak")
		if err := os.WriteFile(path, []byte("not a zip"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := Read(path)
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("got %v, expected ErrUnreadable", err)
		}
	})

	t.Run("zip without library.json is unreadable", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "ReadEra-empty.bak")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		zw := zip.NewWriter(f)
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()

		_, err = Read(path)
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("got %v, expected ErrUnreadable", err)
		}
	})

	t.Run("malformed json is unreadable", func(t *testing.T) {
		t.Parallel()

		path := writeBackup(t, t.TempDir(), "ReadEra-broken.bak", `{"docs": [`)
		_, err := Read(path)
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("got %v, expected ErrUnreadable", err)
		}
	})
}

// TestDiscover tests newest-backup selection.
func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("picks the newest backup", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		older := writeBackup(t, dir, "ReadEra-old.bak", sampleLibrary)
		newer := writeBackup(t, dir, "ReadEra-new.bak", sampleLibrary)

		past := time.Now().Add(-time.Hour)
		if err := os.Chtimes(older, past, past); err != nil {
			t.Fatal(err)
		}

		got, err := Discover(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != newer {
			t.Errorf("got %s, expected %s", got, newer)
		}
	})

	t.Run("empty directory returns ErrNoBackup", func(t *testing.T) {
		t.Parallel()

		_, err := Discover(t.TempDir())
		if !errors.Is(err, ErrNoBackup) {
			t.Errorf("got %v, expected ErrNoBackup", err)
		}
	})
}

// TestFindBook tests lookup by file and by title substring.
func TestFindBook(t *testing.T) {
	t.Parallel()

	path := writeBackup(t, t.TempDir(), "ReadEra-f.bak", sampleLibrary)
	books, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("by title substring, case-insensitive", func(t *testing.T) {
		t.Parallel()

		book, err := FindBook(books, "wald")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if book.Title != "Walden" {
			t.Errorf("got %q, expected Walden", book.Title)
		}
	})

	t.Run("unknown title returns ErrBookNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := FindBook(books, "no such book")
		if !errors.Is(err, ErrBookNotFound) {
			t.Errorf("got %v, expected ErrBookNotFound", err)
		}
	})
}

// TestUnionAndMissing tests cross-backup citation merging.
func TestUnionAndMissing(t *testing.T) {
	t.Parallel()

	const older = `{
  "docs": [{
    "uri": "doc://1",
    "data": {"doc_title": "Walden"},
    "links": [],
    "citations": [
      {"note_body": "kept passage", "note_page": 1, "note_index": 0.1},
      {"note_body": "lost passage", "note_page": 2, "note_index": 0.1}
    ]
  }]
}`
	const newer = `{
  "docs": [{
    "uri": "doc://1",
    "data": {"doc_title": "Walden"},
    "links": [],
    "citations": [
      {"note_body": "kept passage", "note_page": 1, "note_index": 0.1},
      {"note_body": "new passage", "note_page": 3, "note_index": 0.1}
    ]
  }]
}`

	dir := t.TempDir()
	oldBooks, err := Read(writeBackup(t, dir, "ReadEra-a.bak", older))
	if err != nil {
		t.Fatal(err)
	}
	newBooks, err := Read(writeBackup(t, dir, "ReadEra-b.bak", newer))
	if err != nil {
		t.Fatal(err)
	}

	union := Union(oldBooks, newBooks)
	if len(union) != 1 {
		t.Fatalf("got %d books, expected 1", len(union))
	}
	if len(union[0].Highlights) != 3 {
		t.Errorf("got %d highlights in union, expected 3 (deduplicated)", len(union[0].Highlights))
	}

	missing := Missing(union[0], newBooks[0])
	if len(missing) != 1 {
		t.Fatalf("got %d missing, expected 1", len(missing))
	}
	if missing[0].Text != "lost passage" {
		t.Errorf("got %q, expected 'lost passage'", missing[0].Text)
	}
}
