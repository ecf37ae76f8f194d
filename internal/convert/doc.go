// Package convert renders ebooks to PDF through Calibre's
// ebook-convert binary. Inputs that are already PDFs pass through
// untouched.
package convert
