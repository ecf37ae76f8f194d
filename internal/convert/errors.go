package convert

import "errors"

var (
	// ErrConverterNotFound means the ebook-convert binary is not on PATH.
	ErrConverterNotFound = errors.New("ebook-convert not found; install Calibre or point --converter at it")
	// ErrConversionFailed means ebook-convert ran but did not produce a PDF.
	ErrConversionFailed = errors.New("ebook conversion failed")
)
