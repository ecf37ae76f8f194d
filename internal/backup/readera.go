package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/normalize"
)

// libraryEntry is the name of the JSON document inside the backup zip.
const libraryEntry = "library.json"

// backupGlob matches ReadEra backup files by their export naming scheme.
const backupGlob = "ReadEra*.bak"

// library mirrors the structure of library.json. Only the fields the
// anchoring pipeline needs are decoded; everything else is ignored.
type library struct {
	Docs []libraryDoc `json:"docs"`
}

type libraryDoc struct {
	URI       string        `json:"uri"`
	Data      libraryData   `json:"data"`
	Links     []libraryLink `json:"links"`
	Citations []libraryNote `json:"citations"`
}

type libraryData struct {
	// Title is the document title; FileNameTitle is the fallback ReadEra
	// derives from the file name when no title metadata exists.
	Title         string `json:"doc_title"`
	FileNameTitle string `json:"doc_file_name_title"`
	Authors       string `json:"doc_authors"`
}

type libraryLink struct {
	FileName string `json:"file_name"`
}

type libraryNote struct {
	Body string `json:"note_body"`
	// Extra is the user's attached note, absent for plain highlights.
	Extra string `json:"note_extra"`
	// Page and Index together order citations: Page is the 0-based page
	// at creation time, Index the fractional position within it.
	Page  int     `json:"note_page"`
	Index float64 `json:"note_index"`
	// Mark is ReadEra's color tag for the highlight.
	Mark int `json:"note_mark"`
	// InsertTime is the creation timestamp in Unix milliseconds.
	InsertTime int64 `json:"note_insert_time"`
}

// markColors maps ReadEra's numeric color tags to display names.
// Unknown tags fall back to yellow, the reader's default.
var markColors = map[int]string{
	0: "yellow",
	1: "green",
	2: "blue",
	3: "red",
	4: "purple",
}

// Read parses one backup file into books with their highlights.
// Books are returned sorted by title; highlights within a book follow
// the reader's recorded reading order. Malformed containers return an
// error wrapping ErrUnreadable.
func Read(path string) ([]model.Book, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	defer zr.Close()

	var lib *library
	for _, f := range zr.File {
		if f.Name != libraryEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		}
		err = json.NewDecoder(rc).Decode(&lib)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		}
		break
	}
	if lib == nil {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrUnreadable, path, libraryEntry)
	}

	books := make([]model.Book, 0, len(lib.Docs))
	for _, doc := range lib.Docs {
		books = append(books, toBook(doc))
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// toBook converts one library document to a Book.
func toBook(doc libraryDoc) model.Book {
	title := doc.Data.Title
	if title == "" {
		title = doc.Data.FileNameTitle
	}

	book := model.Book{
		Title:  title,
		Author: doc.Data.Authors,
	}
	if len(doc.Links) > 0 {
		book.FileName = doc.Links[0].FileName
	}

	for _, note := range doc.Citations {
		book.Highlights = append(book.Highlights, toHighlight(note))
	}
	// Reading order: ReadEra stores citations unordered.
	sort.SliceStable(book.Highlights, func(i, j int) bool {
		return book.Highlights[i].Position < book.Highlights[j].Position
	})
	return book
}

// toHighlight converts one citation record to a Highlight.
func toHighlight(note libraryNote) model.Highlight {
	color, ok := markColors[note.Mark]
	if !ok {
		color = "yellow"
	}

	h := model.Highlight{
		Text:     note.Body,
		Note:     note.Extra,
		Color:    color,
		Style:    model.StyleHighlight,
		Position: float64(note.Page) + note.Index,
		Hint: model.ProvenanceHint{
			Page: note.Page + 1, // reader pages are 0-based
		},
	}
	if note.InsertTime > 0 {
		h.CreatedAt = time.UnixMilli(note.InsertTime)
	}
	return h
}

// Discover returns the newest ReadEra backup in dir, by modification
// time. Returns ErrNoBackup when the directory holds none.
func Discover(dir string) (string, error) {
	paths, err := List(dir)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// List returns all ReadEra backups in dir, newest first.
// Returns ErrNoBackup when the directory holds none.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, backupGlob))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoBackup, dir)
	}

	sort.Slice(paths, func(i, j int) bool {
		return modTime(paths[i]).After(modTime(paths[j]))
	})
	return paths, nil
}

// modTime returns a file's modification time, zero on error.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// FindBook locates a book by file name (when query names an existing
// file) or by case-insensitive title substring. Returns ErrBookNotFound
// when nothing matches.
func FindBook(books []model.Book, query string) (*model.Book, error) {
	if _, err := os.Stat(query); err == nil {
		base := filepath.Base(query)
		for i := range books {
			if books[i].FileName == base || books[i].FileName == query {
				return &books[i], nil
			}
		}
		return nil, fmt.Errorf("%w: file %s", ErrBookNotFound, query)
	}

	key := normalize.Fold(query)
	for i := range books {
		if strings.Contains(normalize.Fold(books[i].Title), key) {
			return &books[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrBookNotFound, query)
}

// Union merges several backups' book sets into one, keyed by normalized
// title. Highlights are deduplicated by text, position, and note, so the
// union holds every citation any backup ever recorded. Used by verify to
// check each individual backup for completeness.
func Union(bookSets ...[]model.Book) []model.Book {
	type bookAcc struct {
		book model.Book
		seen map[string]bool
	}

	merged := make(map[string]*bookAcc)
	var order []string
	for _, books := range bookSets {
		for _, b := range books {
			key := normalize.Fold(b.Title)
			acc, ok := merged[key]
			if !ok {
				acc = &bookAcc{
					book: model.Book{Title: b.Title, Author: b.Author, FileName: b.FileName},
					seen: make(map[string]bool),
				}
				merged[key] = acc
				order = append(order, key)
			}
			for _, h := range b.Highlights {
				id := fmt.Sprintf("%s\x00%g\x00%s", h.Text, h.Position, h.Note)
				if acc.seen[id] {
					continue
				}
				acc.seen[id] = true
				acc.book.Highlights = append(acc.book.Highlights, h)
			}
		}
	}

	sort.Strings(order)
	books := make([]model.Book, 0, len(order))
	for _, key := range order {
		acc := merged[key]
		sort.SliceStable(acc.book.Highlights, func(i, j int) bool {
			return acc.book.Highlights[i].Position < acc.book.Highlights[j].Position
		})
		books = append(books, acc.book)
	}
	return books
}

// Missing returns the highlights present in want but absent from got,
// compared by text, position, and note. Used to report which citations
// a particular backup lacks.
func Missing(want, got model.Book) []model.Highlight {
	have := make(map[string]bool, len(got.Highlights))
	for _, h := range got.Highlights {
		have[fmt.Sprintf("%s\x00%g\x00%s", h.Text, h.Position, h.Note)] = true
	}

	var missing []model.Highlight
	for _, h := range want.Highlights {
		if !have[fmt.Sprintf("%s\x00%g\x00%s", h.Text, h.Position, h.Note)] {
			missing = append(missing, h)
		}
	}
	return missing
}
