// Package normalize canonicalizes text for comparison between
// reader-captured highlights and PDF-extracted text. Normalization is
// used only to compare; it never alters what gets written to a report
// or annotation.
package normalize
