// Package main provides the entry point for the readmark CLI.
//
// readmark anchors highlights from an ebook reader backup onto a PDF
// rendering of the same book and writes them as real PDF annotations.
// It also verifies that every recorded citation found a home.
//
// Usage:
//
//	readmark annotate <book-file>
//	readmark annotate --all
//
// See --help for all available options.
package main

// main is the entry point for readmark.
func main() {
	Execute()
}
