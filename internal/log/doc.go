// Package log provides logging functionality with automatic trimming of
// long attribute values, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of long string attributes (highlight texts,
//     extracted passages) so single records stay on one readable line
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Usage
//
//	// Create a trimming logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("highlight anchored",
//	    "text", veryLongHighlightText, // Will be cut to 120 runes
//	    "page", 42,
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
