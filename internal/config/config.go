package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/readmark/readmark/internal/convert"
)

// Default configuration values.
// These values are chosen based on how ebook readers fragment text and on
// the cost of running an external converter process per book.
const (
	// DefaultThreshold is the minimum similarity score for an approximate
	// match to be accepted. 0.80 tolerates the hyphenation artifacts and
	// ligature substitutions typical of PDF text extraction while still
	// rejecting passages that merely share common words.
	DefaultThreshold = 0.80

	// DefaultWindowTolerance is how many tokens the approximate match window
	// may grow or shrink relative to the highlight length. Extraction rarely
	// merges or splits more than two words, so 2 catches the common cases
	// without a quadratic blowup in candidate windows.
	DefaultWindowTolerance = 2

	// DefaultBatchSize of 4 concurrent books balances throughput with the
	// memory footprint of running ebook-convert, which forks a heavyweight
	// external process per book. Higher values rarely help because the
	// converter saturates CPU on its own.
	DefaultBatchSize = 4

	// DefaultConverterBinary is the Calibre command-line converter used to
	// render non-PDF books to PDF. It must be on PATH or supplied via the
	// --converter flag. Aliased from the convert package so the default
	// cannot drift between the two.
	DefaultConverterBinary = convert.DefaultBinary

	// AppName is the application name used for XDG directory paths.
	AppName = "readmark"
)

// Config holds all configuration options for readmark.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., MatchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// BackupPath is the path to the ReadEra backup file (.bak) to read
	// highlights from. If empty, the READERA_BACKUP environment variable
	// is consulted, then the current directory is searched for *.bak files.
	BackupPath string

	// Threshold is the minimum similarity score (0..1) for approximate matches.
	// Highlights below this score are reported as unmatched rather than
	// anchored to the wrong passage.
	Threshold float64

	// WindowTolerance is the token-count slack allowed when sliding the
	// approximate match window over the document.
	WindowTolerance int

	// ConverterBinary is the path or name of the ebook-to-PDF converter.
	// Defaults to "ebook-convert" resolved via PATH.
	ConverterBinary string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of books processed concurrently.
	// Higher values increase throughput but each book may fork an
	// external converter process.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .readmark in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// BookConfigs holds per-book overrides loaded from the config file.
	// This is populated by LoadConfigFile and consulted per book title.
	BookConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// When true, outputs the full citation report as JSON.
	// When false, outputs a human-readable simple report (default).
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// When true, outputs GitHub Flavored Markdown with tables, alerts, and pie charts.
	// When false, outputs a human-readable simple report (default).
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// OutputDir is the directory where annotated PDFs are written.
	// When empty, each annotated PDF is placed next to its source file.
	OutputDir string

	// WorkDir is the directory used for intermediate files such as
	// converter output. When empty, the XDG cache directory is used.
	WorkDir string

	// Targets is the list of book files to process.
	// Each entry is a path to a PDF or a format ebook-convert understands.
	Targets []string

	// DBDir is the directory path for storing the SQLite database.
	// When set, verification runs are saved for historical comparison.
	// When empty, runs are not persisted.
	// Defaults to XDG data directory (~/.local/share/readmark on Linux).
	DBDir string

	// SaveToDB indicates whether to save verification runs to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., threshold, batch size).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Threshold:       DefaultThreshold,
		WindowTolerance: DefaultWindowTolerance,
		BatchSize:       DefaultBatchSize,
		ConverterBinary: DefaultConverterBinary,
	}
}

// XDGDataDir returns the XDG data directory for readmark.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/readmark
// On macOS: ~/Library/Application Support/readmark
// On Windows: %LOCALAPPDATA%\readmark
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for readmark.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/readmark
// On macOS: ~/Library/Application Support/readmark
// On Windows: %APPDATA%\readmark
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for readmark.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/readmark
// On macOS: ~/Library/Caches/readmark
// On Windows: %LOCALAPPDATA%\readmark\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any processing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one book to process
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Threshold must stay in (0, 1]; zero would accept any passage
	if c.Threshold <= 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}

	// WindowTolerance must be non-negative
	if c.WindowTolerance < 0 {
		return ErrInvalidWindowTolerance
	}

	// BatchSize must be positive; zero would mean no processing
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// ConverterBinary must be set; the pipeline needs something to exec
	if c.ConverterBinary == "" {
		return ErrNoConverter
	}

	return nil
}
