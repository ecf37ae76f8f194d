package geometry

import (
	"errors"
	"testing"

	"github.com/readmark/readmark/internal/model"
)

// box builds a word box on one line: x spans [x0, x1], y spans [y, y+12].
func box(text string, x0, x1, y float64) model.WordBox {
	return model.WordBox{
		Text: text,
		Rect: model.Rect{Llx: x0, Lly: y, Urx: x1, Ury: y + 12},
	}
}

// TestResolve tests span-to-rectangle resolution.
func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("same-line words merge into one rectangle", func(t *testing.T) {
		t.Parallel()

		res := &model.MatchResult{
			Status:     model.StatusMatched,
			Confidence: 1.0,
			Fragments: []model.Fragment{{
				Page: 1,
				Words: []model.WordBox{
					box("quick", 72, 110, 700),
					box("brown", 114, 152, 700),
					box("fox", 156, 176, 700),
				},
			}},
		}

		rects, err := Resolve(res)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rects) != 1 {
			t.Fatalf("got %d rectangles, expected 1", len(rects))
		}
		want := model.Rect{Llx: 72, Lly: 700, Urx: 176, Ury: 712}
		if rects[0].Rect != want {
			t.Errorf("got %+v, expected %+v", rects[0].Rect, want)
		}
		if rects[0].Page != 1 {
			t.Errorf("got page %d, expected 1", rects[0].Page)
		}
	})

	t.Run("line break yields one rectangle per line", func(t *testing.T) {
		t.Parallel()

		res := &model.MatchResult{
			Status:     model.StatusMatched,
			Confidence: 1.0,
			Fragments: []model.Fragment{{
				Page: 2,
				Words: []model.WordBox{
					box("end", 400, 430, 700),
					box("of", 434, 448, 700),
					box("line", 452, 480, 700),
					// Next visual line, 16 points below.
					box("start", 72, 108, 684),
					box("again", 112, 148, 684),
				},
			}},
		}

		rects, err := Resolve(res)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rects) != 2 {
			t.Fatalf("got %d rectangles, expected 2", len(rects))
		}
		if rects[0].Rect.Llx != 400 || rects[1].Rect.Llx != 72 {
			t.Errorf("line rectangles not split where expected: %+v", rects)
		}
	})

	t.Run("page-spanning match yields rectangles on both pages", func(t *testing.T) {
		t.Parallel()

		res := &model.MatchResult{
			Status:     model.StatusMatched,
			Confidence: 1.0,
			Fragments: []model.Fragment{
				{Page: 1, Words: []model.WordBox{box("brown", 400, 440, 80)}},
				{Page: 2, Words: []model.WordBox{box("fox", 72, 96, 720)}},
			},
		}

		rects, err := Resolve(res)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rects) != 2 {
			t.Fatalf("got %d rectangles, expected 2", len(rects))
		}
		if rects[0].Page != 1 || rects[1].Page != 2 {
			t.Errorf("got pages %d,%d, expected 1,2", rects[0].Page, rects[1].Page)
		}
	})

	t.Run("unmatched resolves to nothing without error", func(t *testing.T) {
		t.Parallel()

		rects, err := Resolve(model.Unmatched(&model.Highlight{Text: "x"}, "not found"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rects != nil {
			t.Errorf("expected nil rectangles, got %v", rects)
		}
	})

	t.Run("all-degenerate boxes return ErrNoGeometry", func(t *testing.T) {
		t.Parallel()

		res := &model.MatchResult{
			Status:     model.StatusMatched,
			Confidence: 1.0,
			Fragments: []model.Fragment{{
				Page:  1,
				Words: []model.WordBox{{Text: "ghost", Rect: model.Rect{Llx: 10, Lly: 10, Urx: 10, Ury: 10}}},
			}},
		}

		rects, err := Resolve(res)
		if !errors.Is(err, ErrNoGeometry) {
			t.Fatalf("got error %v, expected ErrNoGeometry", err)
		}
		if rects != nil {
			t.Errorf("expected nil rectangles, got %v", rects)
		}
	})
}
