package backup

import "errors"

// Backup reading errors. ErrUnreadable wraps the underlying cause; use
// errors.Is to classify. A single unreadable backup is never fatal for
// a run covering several backups.
var (
	// ErrUnreadable is returned when a backup container is malformed or
	// unsupported: not a zip, missing library.json, or invalid JSON.
	ErrUnreadable = errors.New("backup unreadable")

	// ErrNoBackup is returned when no ReadEra backup file can be found
	// in the search directory.
	ErrNoBackup = errors.New("no ReadEra backup found")

	// ErrBookNotFound is returned when no book in the backup matches the
	// requested file name or title.
	ErrBookNotFound = errors.New("book not found in backup")
)
