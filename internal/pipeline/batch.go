package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/readmark/readmark/internal/model"
	"golang.org/x/sync/errgroup"
)

// Target names one book to process: the library entry plus the path of
// its ebook file on disk.
type Target struct {
	Book model.Book
	Path string
}

// BatchProcessor handles concurrent processing of multiple books.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-book execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each book.
	// We use a factory to ensure each book gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of books processed at once.
	// Conversion forks an external process per book, so this also
	// bounds ebook-convert processes.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed book reports.
	// Access is synchronized via mutex.
	results []*BookReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent books.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each book to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// books and allows for per-book customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*BookReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline for multiple books concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each book gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, even for books that failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]*BookReport, error) {
	bp.logger.Info("starting batch processing",
		"total_books", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*BookReport, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing book",
				"book", target.Book.Title,
				"index", i+1,
				"total", len(targets),
			)

			report := NewBookReport(target.Book, target.Path)

			pipeline := bp.pipelineFactory()
			err := pipeline.Execute(ctx, report)

			// Store result regardless of error
			// The report contains error information if processing failed
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("book processing failed",
					"book", target.Book.Title,
					"error", err,
				)
				// Don't return error to errgroup - we want to continue other books
				// The error is recorded in the report
				return nil
			}

			bp.logger.Info("book processed",
				"book", target.Book.Title,
			)

			return nil
		})
	}

	// Wait for all books to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_books", len(targets),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback processes multiple books and calls a callback
// for each completed one. This is useful for streaming results.
//
// The callback receives the report and the index of the book in the
// original slice. The callback is called from the goroutine that completed
// the book, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []Target,
	callback func(report *BookReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_books", len(targets),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := NewBookReport(target.Book, target.Path)
			pipeline := bp.pipelineFactory()
			_ = pipeline.Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
