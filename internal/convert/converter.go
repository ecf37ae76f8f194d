package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the Calibre converter looked up on PATH when no
// explicit binary is configured.
const DefaultBinary = "ebook-convert"

// Converter renders ebook files to PDF.
type Converter struct {
	binary string
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithBinary overrides the converter binary path.
func WithBinary(path string) Option {
	return func(c *Converter) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithLogger sets a custom logger for conversion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// New creates a Converter. The binary is not checked here; call
// Available before converting to fail early with a clear error.
func New(opts ...Option) *Converter {
	c := &Converter{binary: DefaultBinary}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Available reports whether the converter binary can be found.
func (c *Converter) Available() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%w: %s", ErrConverterNotFound, c.binary)
	}
	return nil
}

// ToPDF converts bookPath into a PDF inside workDir and returns the
// PDF path. A book that already is a PDF is returned as is, without
// touching the converter.
func (c *Converter) ToPDF(ctx context.Context, bookPath, workDir string) (string, error) {
	if IsPDF(bookPath) {
		return bookPath, nil
	}
	if err := c.Available(); err != nil {
		return "", err
	}
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0750); err != nil {
			return "", fmt.Errorf("failed to create work directory: %w", err)
		}
	}

	outPath := filepath.Join(workDir, pdfName(bookPath))
	c.logger.Info("converting ebook", "book", filepath.Base(bookPath), "output", outPath)

	cmd := exec.CommandContext(ctx, c.binary, bookPath, outPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Warn("converter output", "output", string(out))
		return "", fmt.Errorf("%w: %s: %v", ErrConversionFailed, filepath.Base(bookPath), err)
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("%w: converter produced no output for %s", ErrConversionFailed, filepath.Base(bookPath))
	}
	return outPath, nil
}

// IsPDF reports whether path already names a PDF file.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// pdfName swaps a book file's extension for .pdf.
func pdfName(bookPath string) string {
	base := filepath.Base(bookPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}
