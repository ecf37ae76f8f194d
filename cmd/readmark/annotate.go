package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/readmark/readmark/internal/backup"
	"github.com/readmark/readmark/internal/config"
	"github.com/readmark/readmark/internal/convert"
	"github.com/readmark/readmark/internal/database"
	"github.com/readmark/readmark/internal/log"
	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/pipeline"
	"github.com/readmark/readmark/internal/report"
	"github.com/spf13/cobra"
)

// backupEnvVar names the environment variable consulted for the backup
// file when the --backup flag is not set.
const backupEnvVar = "READERA_BACKUP"

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate [book-file-or-title]...",
		Short: "Anchor backup highlights onto a PDF as annotations",
		Long: `Annotate locates each highlight from the reader backup in the book's
PDF text and writes it into a copy of the PDF as a real highlight
annotation. Highlights with notes get an attached comment annotation.

Non-PDF books are rendered to PDF through Calibre's ebook-convert
before matching. The annotated copy is written next to the source file
(or into --output-dir) as <name>_highlighted.pdf.

After annotating, a citation report shows which highlights could not
be anchored so you can fix them by hand.

Examples:
  # Annotate a single book by file
  readmark annotate walden.epub

  # Annotate by title (matched against the backup, case-insensitive)
  readmark annotate "walden"

  # Annotate every highlighted book in the backup
  readmark annotate --all --books-dir ~/books

  # Use a specific backup instead of the newest one found
  readmark annotate --backup ReadEra-2026-08-01.bak walden.epub

  # Loosen matching for a book whose PDF extracts noisy text
  readmark annotate --threshold 0.7 old-scan.pdf

  # Output Markdown report to a file
  readmark annotate --markdown -o report.md walden.epub

Configuration file (.readmark) example:
  books:
    Walden:
      threshold: 0.7
      color: green
    "Old Textbook":
      skip: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnnotateCmd,
	}

	// Input flags
	cmd.Flags().StringP("backup", "b", "",
		"ReadEra backup file (default: $READERA_BACKUP, then newest *.bak in current directory)")
	cmd.Flags().Bool("all", false,
		"Process every highlighted book in the backup")
	cmd.Flags().String("books-dir", ".",
		"Directory holding the book files named in the backup")

	// Matching flags
	cmd.Flags().Float64P("threshold", "t", config.DefaultThreshold,
		"Minimum similarity score (0..1) for approximate matches")
	cmd.Flags().IntP("tolerance", "w", config.DefaultWindowTolerance,
		"Token window tolerance for approximate matches")

	// Conversion and output flags
	cmd.Flags().String("converter", config.DefaultConverterBinary,
		"Path or name of the ebook-to-PDF converter")
	cmd.Flags().String("output-dir", "",
		"Directory for annotated PDFs (default: beside each source file)")
	cmd.Flags().String("work-dir", "",
		"Directory for intermediate converted PDFs (default: XDG cache)")

	// Batch processing flags
	cmd.Flags().IntP("batch", "n", config.DefaultBatchSize,
		"Number of books processed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .readmark in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	booksDir, err := cmd.Flags().GetString("books-dir")
	if err != nil {
		return err
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Resolve the backup and read the library before validating so that
	// --all can populate the target list.
	backupPath, err := resolveBackup(cfg.BackupPath)
	if err != nil {
		return err
	}
	cfg.BackupPath = backupPath

	books, err := backup.Read(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backupPath, err)
	}
	logger.Info("backup loaded", "file", backupPath, "books", len(books))

	targets, err := buildTargets(cfg, books, args, all, booksDir, logger)
	if err != nil {
		return err
	}
	for _, t := range targets {
		cfg.Targets = append(cfg.Targets, t.Path)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnnotate(ctx, cfg, targets, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.BackupPath, err = cmd.Flags().GetString("backup")
	if err != nil {
		return nil, err
	}

	cfg.Threshold, err = cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return nil, err
	}

	cfg.WindowTolerance, err = cmd.Flags().GetInt("tolerance")
	if err != nil {
		return nil, err
	}

	cfg.ConverterBinary, err = cmd.Flags().GetString("converter")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.WorkDir, err = cmd.Flags().GetString("work-dir")
	if err != nil {
		return nil, err
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = config.XDGCacheDir()
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-book configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.BookConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.BookConfigs = &config.File{
			Books: make(map[string]config.BookConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// resolveBackup locates the backup file to read.
// Priority: --backup flag > READERA_BACKUP environment variable >
// newest *.bak in the current directory.
func resolveBackup(flagPath string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", fmt.Errorf("backup file not found: %s", flagPath)
		}
		return flagPath, nil
	}

	if env := os.Getenv(backupEnvVar); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("backup file from $%s not found: %s", backupEnvVar, env)
		}
		return env, nil
	}

	path, err := backup.Discover(".")
	if err != nil {
		return "", fmt.Errorf("no backup specified and none found: %w", err)
	}
	return path, nil
}

// buildTargets resolves the books to process and their file paths.
// With --all, every highlighted book in the backup that is not skipped
// by configuration becomes a target. Otherwise each argument is looked
// up as a file path or a title.
func buildTargets(cfg *config.Config, books []model.Book, args []string, all bool, booksDir string, logger *slog.Logger) ([]pipeline.Target, error) {
	var targets []pipeline.Target

	if all {
		for _, book := range books {
			bc := cfg.BookConfigs.GetBookConfig(book.Title)
			if bc.Skip {
				logger.Info("skipping book per configuration", "title", book.Title)
				continue
			}
			if len(book.Highlights) == 0 {
				continue
			}
			path := bookPath(bc, book, booksDir)
			if path == "" {
				logger.Warn("backup records no file name for book, skipping", "title", book.Title)
				continue
			}
			if _, err := os.Stat(path); err != nil {
				logger.Warn("book file not found, skipping", "title", book.Title, "path", path)
				continue
			}
			targets = append(targets, pipeline.Target{Book: applyBookConfig(book, bc), Path: path})
		}
		return targets, nil
	}

	for _, arg := range args {
		book, err := backup.FindBook(books, arg)
		if err != nil {
			return nil, err
		}
		bc := cfg.BookConfigs.GetBookConfig(book.Title)

		// An argument naming an existing file wins over the backup's
		// recorded file name.
		path := arg
		if _, err := os.Stat(arg); err != nil {
			path = bookPath(bc, *book, booksDir)
		}
		if path == "" {
			return nil, fmt.Errorf("cannot locate file for %q: backup records no file name (set file: in .readmark)", book.Title)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("book file not found: %s", path)
		}
		targets = append(targets, pipeline.Target{Book: applyBookConfig(*book, bc), Path: path})
	}

	return targets, nil
}

// bookPath resolves a book's file path from its configuration override
// or the backup's recorded file name. Returns empty when neither is set.
func bookPath(bc config.BookConfig, book model.Book, booksDir string) string {
	if bc.File != "" {
		return bc.File
	}
	if book.FileName == "" {
		return ""
	}
	return filepath.Join(booksDir, book.FileName)
}

// applyBookConfig applies per-book highlight overrides that travel with
// the book data rather than the pipeline configuration.
func applyBookConfig(book model.Book, bc config.BookConfig) model.Book {
	if bc.Color == "" {
		return book
	}
	highlights := make([]model.Highlight, len(book.Highlights))
	copy(highlights, book.Highlights)
	for i := range highlights {
		highlights[i].Color = bc.Color
	}
	book.Highlights = highlights
	return book
}

// runAnnotate executes the annotation run.
func runAnnotate(ctx context.Context, cfg *config.Config, targets []pipeline.Target, logger *slog.Logger) error {
	if len(targets) == 0 {
		return config.ErrNoTarget
	}

	logger.Info("starting annotation run",
		"books", len(targets),
		"threshold", cfg.Threshold,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.AnchorDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	var reports []*pipeline.BookReport
	var err error
	if len(targets) > 1 && cfg.BatchSize > 1 {
		reports, err = runBatchAnnotate(ctx, cfg, targets, logger)
	} else {
		reports, err = runSequentialAnnotate(ctx, cfg, targets, logger)
	}
	if err != nil {
		return err
	}

	// Collect citation reports from successful runs
	var citations []*model.CitationReport
	for _, r := range reports {
		if r.Citation != nil {
			citations = append(citations, r.Citation)
		}
	}

	if err := outputReports(cfg, citations); err != nil {
		return err
	}

	saveRuns(ctx, db, cfg, citations, logger)
	return nil
}

// runSequentialAnnotate processes books one at a time, applying
// per-book configuration overrides.
func runSequentialAnnotate(ctx context.Context, cfg *config.Config, targets []pipeline.Target, logger *slog.Logger) ([]*pipeline.BookReport, error) {
	reports := make([]*pipeline.BookReport, 0, len(targets))

	for _, target := range targets {
		select {
		case <-ctx.Done():
			return reports, ctx.Err()
		default:
		}

		bc := cfg.BookConfigs.GetBookConfig(target.Book.Title)
		p := createPipelineForBook(cfg, bc, logger)

		bookReport := pipeline.NewBookReport(target.Book, target.Path)

		fmt.Printf("Annotating %s...\n", target.Book.Title)
		startTime := time.Now()

		if err := p.Execute(ctx, bookReport); err != nil {
			logger.Error("annotation failed", "book", target.Book.Title, "error", err)
			fmt.Fprintf(os.Stderr, "Error for %s: %v\n", target.Book.Title, err)
			// A failed PDF write still produced a citation report;
			// keep it so the verification output stays complete.
			if bookReport.Citation != nil {
				reports = append(reports, bookReport)
			}
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Wrote %d annotation(s) to %s in %s\n\n",
			bookReport.AnnotationsWritten, bookReport.OutputPath, elapsed.Round(time.Millisecond))

		reports = append(reports, bookReport)
	}

	return reports, nil
}

// runBatchAnnotate processes books concurrently using BatchProcessor.
//
// Batch mode uses the global matching settings for every book; per-book
// threshold overrides from the config file apply only in sequential mode
// because all workers share one pipeline factory.
func runBatchAnnotate(ctx context.Context, cfg *config.Config, targets []pipeline.Target, logger *slog.Logger) ([]*pipeline.BookReport, error) {
	fmt.Printf("Annotating %d books (concurrency: %d)...\n\n", len(targets), cfg.BatchSize)

	if cfg.BookConfigs != nil && hasMatchingOverrides(cfg.BookConfigs) {
		logger.Warn("batch processing uses global matching settings; per-book threshold overrides are ignored",
			"bookCount", len(cfg.BookConfigs.Books))
		fmt.Fprintf(os.Stderr, "Warning: Per-book threshold overrides are ignored in batch mode. Use --batch 1 to apply them.\n\n")
	}

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			var defaults config.BookConfig
			if cfg.BookConfigs != nil {
				defaults = cfg.BookConfigs.Defaults
			}
			return createPipelineForBook(cfg, defaults, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	var reports []*pipeline.BookReport
	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *pipeline.BookReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if report.Error != nil {
			fmt.Printf("[%d/%d] Failed: %s (%v)\n", index+1, len(targets), report.Book.Title, report.Error)
		} else {
			fmt.Printf("[%d/%d] Annotated %s: %d annotation(s)\n",
				index+1, len(targets), report.Book.Title, report.AnnotationsWritten)
		}
		// A failed PDF write still produced a citation report
		if report.Citation != nil {
			reports = append(reports, report)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch run completed in %s\n\n", elapsed.Round(time.Millisecond))

	return reports, err
}

// hasMatchingOverrides reports whether any per-book config carries a
// matching override that batch mode cannot honor.
func hasMatchingOverrides(cf *config.File) bool {
	for _, bc := range cf.Books {
		if bc.Threshold != 0 || bc.WindowTolerance != nil {
			return true
		}
	}
	return false
}

// createPipelineForBook creates a pipeline with the given configuration,
// applying per-book matching overrides where present.
func createPipelineForBook(cfg *config.Config, bc config.BookConfig, logger *slog.Logger) *pipeline.Pipeline {
	threshold := cfg.Threshold
	if bc.Threshold != 0 {
		threshold = bc.Threshold
	}
	tolerance := cfg.WindowTolerance
	if bc.WindowTolerance != nil {
		tolerance = *bc.WindowTolerance
	}

	return pipeline.DefaultPipeline(
		pipeline.DefaultConfig{
			Converter:       convert.New(convert.WithBinary(cfg.ConverterBinary), convert.WithLogger(logger)),
			WorkDir:         cfg.WorkDir,
			OutputDir:       cfg.OutputDir,
			Threshold:       threshold,
			WindowTolerance: tolerance,
			Logger:          logger,
		},
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(false),
	)
}

// outputReports writes the citation reports in the requested format.
func outputReports(cfg *config.Config, citations []*model.CitationReport) error {
	if len(citations) == 0 {
		fmt.Println("No citation reports produced.")
		return nil
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full reports with version metadata)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.WriteAll(citations)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.WriteAll(citations)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.WriteAll(citations)
	return err
}

// saveRuns saves the citation reports to the database if enabled.
// Persistence failures are logged, not fatal: the annotated PDFs and
// the printed report are the primary outputs.
func saveRuns(ctx context.Context, db *database.AnchorDB, cfg *config.Config, citations []*model.CitationReport, logger *slog.Logger) {
	if db == nil {
		return
	}

	for _, c := range citations {
		if err := db.SaveRun(ctx, c, cfg.BackupPath); err != nil {
			logger.Error("failed to save run", "book", c.BookTitle, "error", err)
			continue
		}
		logger.Info("run saved to database", "book", c.BookTitle)
	}
}
