package annotate

import (
	"math"
	"testing"

	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/readmark/readmark/internal/model"
)

func TestColorFor(t *testing.T) {
	t.Parallel()

	t.Run("named colors resolve", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"yellow", "green", "blue", "red", "purple"} {
			got := colorFor(name)
			want := namedColors[name]
			if got != want {
				t.Errorf("colorFor(%q) = %v, want %v", name, got, want)
			}
		}
	})

	t.Run("names are case insensitive", func(t *testing.T) {
		t.Parallel()
		if got, want := colorFor("Yellow"), namedColors["yellow"]; got != want {
			t.Errorf("colorFor(Yellow) = %v, want %v", got, want)
		}
	})

	t.Run("hex literal", func(t *testing.T) {
		t.Parallel()
		got := colorFor("#ff8000")
		if math.Abs(float64(got.R)-1.0) > 1e-6 {
			t.Errorf("R = %v, want 1.0", got.R)
		}
		if math.Abs(float64(got.G)-128.0/255) > 1e-6 {
			t.Errorf("G = %v, want %v", got.G, 128.0/255)
		}
		if got.B != 0 {
			t.Errorf("B = %v, want 0", got.B)
		}
	})

	t.Run("unknown tag falls back to yellow", func(t *testing.T) {
		t.Parallel()
		if got, want := colorFor("chartreuse"), namedColors["yellow"]; got != want {
			t.Errorf("colorFor(chartreuse) = %v, want %v", got, want)
		}
	})

	t.Run("malformed hex falls back to yellow", func(t *testing.T) {
		t.Parallel()
		for _, tag := range []string{"#ff80", "#gggggg", "ff8000", ""} {
			if got, want := colorFor(tag), namedColors["yellow"]; got != want {
				t.Errorf("colorFor(%q) = %v, want %v", tag, got, want)
			}
		}
	})
}

func TestQuadFor(t *testing.T) {
	t.Parallel()

	r := model.Rect{Llx: 10, Lly: 20, Urx: 110, Ury: 32}
	q := quadFor(r)
	if q.P1.X != 10 || q.P1.Y != 32 {
		t.Errorf("P1 = %v, want upper-left (10, 32)", q.P1)
	}
	if q.P2.X != 110 || q.P2.Y != 32 {
		t.Errorf("P2 = %v, want upper-right (110, 32)", q.P2)
	}
	if q.P3.X != 10 || q.P3.Y != 20 {
		t.Errorf("P3 = %v, want lower-left (10, 20)", q.P3)
	}
	if q.P4.X != 110 || q.P4.Y != 20 {
		t.Errorf("P4 = %v, want lower-right (110, 20)", q.P4)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("rectangles without a note yield one highlight per page", func(t *testing.T) {
		t.Parallel()
		ann := Annotation{
			Rects: []model.PageRectangle{
				{Page: 2, Rect: model.Rect{Llx: 10, Lly: 700, Urx: 200, Ury: 712}},
				{Page: 2, Rect: model.Rect{Llx: 10, Lly: 684, Urx: 150, Ury: 696}},
				{Page: 3, Rect: model.Rect{Llx: 10, Lly: 740, Urx: 90, Ury: 752}},
			},
			Color:    "green",
			Contents: "two lines then a page turn",
		}
		rendered, err := render(0, ann)
		if err != nil {
			t.Fatalf("render() error = %v", err)
		}
		if len(rendered) != 2 {
			t.Fatalf("len(rendered) = %d, want pages 2 and 3", len(rendered))
		}
		if n := len(rendered[2]); n != 1 {
			t.Errorf("page 2 has %d renderers, want 1", n)
		}
		hl, ok := rendered[2][0].(pdfmodel.HighlightAnnotation)
		if !ok {
			t.Fatalf("page 2 renderer is %T, want HighlightAnnotation", rendered[2][0])
		}
		if len(hl.Quad) != 2 {
			t.Errorf("page 2 highlight has %d quads, want one per line", len(hl.Quad))
		}
		if n := len(rendered[3]); n != 1 {
			t.Errorf("page 3 has %d renderers, want 1", n)
		}
	})

	t.Run("note adds a text annotation on the first page", func(t *testing.T) {
		t.Parallel()
		ann := Annotation{
			Rects: []model.PageRectangle{
				{Page: 5, Rect: model.Rect{Llx: 40, Lly: 600, Urx: 220, Ury: 612}},
			},
			Note:     "check this later",
			Contents: "annotated line",
		}
		rendered, err := render(1, ann)
		if err != nil {
			t.Fatalf("render() error = %v", err)
		}
		if n := len(rendered[5]); n != 2 {
			t.Fatalf("page 5 has %d renderers, want highlight plus note", n)
		}
		note, ok := rendered[5][1].(pdfmodel.TextAnnotation)
		if !ok {
			t.Fatalf("second renderer is %T, want TextAnnotation", rendered[5][1])
		}
		if note.Contents != "check this later" {
			t.Errorf("note contents = %q", note.Contents)
		}
	})

	t.Run("no rectangles is an error", func(t *testing.T) {
		t.Parallel()
		if _, err := render(0, Annotation{Contents: "orphan"}); err == nil {
			t.Error("expected error for annotation without rectangles")
		}
	})
}

func TestGroupByPage(t *testing.T) {
	t.Parallel()

	t.Run("contiguous pages group", func(t *testing.T) {
		t.Parallel()
		rects := []model.PageRectangle{
			{Page: 2, Rect: model.Rect{Llx: 0, Lly: 0, Urx: 10, Ury: 10}},
			{Page: 2, Rect: model.Rect{Llx: 0, Lly: 20, Urx: 10, Ury: 30}},
			{Page: 3, Rect: model.Rect{Llx: 0, Lly: 0, Urx: 10, Ury: 10}},
		}
		groups := groupByPage(rects)
		if len(groups) != 2 {
			t.Fatalf("len(groups) = %d, want 2", len(groups))
		}
		if groups[0].number != 2 || len(groups[0].rects) != 2 {
			t.Errorf("groups[0] = page %d with %d rects, want page 2 with 2",
				groups[0].number, len(groups[0].rects))
		}
		if groups[1].number != 3 || len(groups[1].rects) != 1 {
			t.Errorf("groups[1] = page %d with %d rects, want page 3 with 1",
				groups[1].number, len(groups[1].rects))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		if groups := groupByPage(nil); len(groups) != 0 {
			t.Errorf("len(groups) = %d, want 0", len(groups))
		}
	})
}
