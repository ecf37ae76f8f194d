// Package backup reads ReadEra backup files. A backup is a zip
// container whose library.json entry lists every document the reader
// knows about together with its citations (highlights). The package
// turns that container into model.Book values; everything downstream is
// independent of the container format.
package backup
