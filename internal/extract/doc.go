// Package extract pulls positioned word tokens out of a PDF. It
// assembles the raw text runs the PDF library reports into words with
// bounding rectangles, per page and in reading order — the input the
// document index is built from.
package extract
