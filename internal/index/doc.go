// Package index builds the searchable representation of a document:
// per-page word tokens with geometry, concatenated into one normalized
// logical stream with an offset table mapping stream positions back to
// (page, token, rectangle). The offset table is what lets a single
// substring search resolve matches that cross page boundaries.
package index
