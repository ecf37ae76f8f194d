package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/readmark/readmark/internal/model"
)

// testTargets builds n throwaway book targets.
func testTargets(n int) []Target {
	targets := make([]Target, n)
	for i := range targets {
		targets[i] = Target{
			Book: model.Book{Title: "Book"},
			Path: "/books/book.epub",
		}
	}
	return targets
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.concurrency != 4 {
			t.Errorf("expected default concurrency 4, got %d", bp.concurrency)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(
			func() *Pipeline { return New() },
			WithConcurrency(8),
		)

		if bp.concurrency != 8 {
			t.Errorf("expected concurrency 8, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(
			func() *Pipeline { return New() },
			WithConcurrency(0),
		)

		if bp.concurrency != 4 { // Should keep default
			t.Errorf("expected concurrency 4, got %d", bp.concurrency)
		}
	})

	t.Run("applies WithBatchLogger option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(
			func() *Pipeline { return New() },
			WithBatchLogger(nil),
		)

		// When WithBatchLogger(nil) is passed, the logger should be set to default
		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all books", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "count",
				doFunc: func(_ context.Context, _ *BookReport) error {
					processed.Add(1)
					return nil
				},
			})
			return p
		}

		bp := NewBatchProcessor(factory)
		reports, err := bp.ProcessBatch(context.Background(), testTargets(5))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 5 {
			t.Errorf("expected 5 reports, got %d", len(reports))
		}
		if processed.Load() != 5 {
			t.Errorf("expected 5 processed, got %d", processed.Load())
		}
	})

	t.Run("preserves target order in results", func(t *testing.T) {
		t.Parallel()

		targets := []Target{
			{Book: model.Book{Title: "Alpha"}, Path: "/books/alpha.epub"},
			{Book: model.Book{Title: "Beta"}, Path: "/books/beta.epub"},
			{Book: model.Book{Title: "Gamma"}, Path: "/books/gamma.epub"},
		}

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		reports, err := bp.ProcessBatch(context.Background(), targets)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []string{"Alpha", "Beta", "Gamma"} {
			if reports[i].Book.Title != want {
				t.Errorf("reports[%d].Book.Title = %q, want %q", i, reports[i].Book.Title, want)
			}
		}
	})

	t.Run("failed book does not stop the batch", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "sometimes-fails",
				doFunc: func(_ context.Context, _ *BookReport) error {
					if calls.Add(1) == 1 {
						return errors.New("broken book")
					}
					return nil
				},
			})
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(1))
		reports, err := bp.ProcessBatch(context.Background(), testTargets(3))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(reports))
		}

		failed := 0
		for _, r := range reports {
			if r.Error != nil {
				failed++
			}
		}
		if failed != 1 {
			t.Errorf("expected 1 failed report, got %d", failed)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		_, err := bp.ProcessBatch(ctx, testTargets(3))

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty target list", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		reports, err := bp.ProcessBatch(context.Background(), nil)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 0 {
			t.Errorf("expected 0 reports, got %d", len(reports))
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming batch processing.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	t.Run("callback fires once per book", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		seen := make(map[int]bool)

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		err := bp.ProcessBatchWithCallback(context.Background(), testTargets(4),
			func(report *BookReport, index int) {
				mu.Lock()
				defer mu.Unlock()
				seen[index] = true
				if report == nil {
					t.Error("callback received nil report")
				}
			})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 4 {
			t.Errorf("expected 4 callbacks, got %d", len(seen))
		}
	})
}
