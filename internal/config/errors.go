package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no book file is specified.
	// This error occurs when neither --all nor a positional argument
	// provides a book to process.
	ErrNoTarget = errors.New("no book specified: provide a book file or use --all")

	// ErrInvalidThreshold is returned when the similarity threshold is
	// outside (0, 1]. A threshold of zero would accept any passage as a
	// match; values above 1 can never be satisfied.
	ErrInvalidThreshold = errors.New("invalid threshold: must be in (0, 1]")

	// ErrInvalidWindowTolerance is returned when the window tolerance is
	// negative. Use 0 to require windows of exactly the highlight length.
	ErrInvalidWindowTolerance = errors.New("invalid window tolerance: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent processing, effectively
	// stopping the tool.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoConverter is returned when the converter binary name is empty.
	// Non-PDF books cannot be processed without a converter.
	ErrNoConverter = errors.New("no converter specified: set --converter or install Calibre")
)
