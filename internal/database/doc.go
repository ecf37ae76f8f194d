// Package database provides SQLite-based storage for verification runs.
//
// This package implements the AnchorDB, which stores one record per
// book per processing run: the citation tallies and the full report as
// JSON. The history makes it possible to compare runs over time, for
// example after re-converting a book with a newer renderer.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
