package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/readmark/readmark/internal/config"
	"github.com/readmark/readmark/internal/database"
	"github.com/readmark/readmark/internal/model"
	"github.com/spf13/cobra"
)

// Constants for coverage direction and summary messages.
const (
	coverageWorsened  = "worsened"
	coverageImproved  = "improved"
	coverageUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares verification runs with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [book-title]",
		Short: "Compare verification runs with historical data",
		Long: `Compare displays differences between the current and previous
verification runs for a book.

This command retrieves historical runs from the database and shows:
- Highlights that became unmatched since the last run
- Highlights that were recovered and now match
- Changes in match coverage

The comparison requires at least two runs in the database for the
specified book. Use 'readmark annotate' to run and save results.

Examples:
  # Compare latest two runs for a book
  readmark compare "walden"

  # List all run history for a book
  readmark compare --list "walden"

  # Compare with a specific historical run by ID
  readmark compare --with-run-id 5 "walden"

  # Compare runs since a specific date
  readmark compare --since "2026-01-01" "walden"

  # Output comparison in JSON format
  readmark compare --json "walden"

  # List all books in the database
  readmark compare --list-books`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified book")
	cmd.Flags().BoolP("list-books", "L", false,
		"List all books in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-books flag first (requires database but no title)
	listBooks, err := cmd.Flags().GetBool("list-books")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-books)
	// This prevents database lock issues when validation fails
	var bookTitle string
	if !listBooks {
		if len(args) == 0 {
			return errors.New("book title is required (use --list-books to see available books)")
		}
		bookTitle = args[0]
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-books flag
	if listBooks {
		return listVerifiedBooks(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, bookTitle)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, bookTitle, withRunID, sinceDate, jsonOutput, markdownOutput)
}

// listVerifiedBooks lists all books that have run records in the database.
func listVerifiedBooks(ctx context.Context, db *database.AnchorDB) error {
	books, err := db.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if len(books) == 0 {
		fmt.Println("No verified books found in the database.")
		fmt.Println("\nUse 'readmark annotate <book>' to annotate a book and save a run.")
		return nil
	}

	fmt.Printf("Verified books (%d):\n\n", len(books))
	for _, book := range books {
		fmt.Printf("  • %s\n", book)
	}
	fmt.Println("\nUse 'readmark compare --list <title>' to see run history for a book.")

	return nil
}

// listRunHistory lists all run records for a specific book.
func listRunHistory(ctx context.Context, db *database.AnchorDB, bookTitle string) error {
	runs, err := db.GetRunHistoryWithMetadata(ctx, bookTitle)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", bookTitle)
		fmt.Println("\nUse 'readmark annotate' to process this book.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", bookTitle, len(runs))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Coverage")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatCoverage(meta),
		)
	}

	fmt.Println("\nUse 'readmark compare <title>' to compare the latest two runs.")
	fmt.Println("Use 'readmark compare --with-run-id <id> <title>' to compare with a specific run.")

	return nil
}

// formatCoverage formats run tallies into a human-readable string.
func formatCoverage(meta database.RunMetadata) string {
	if meta.Total == 0 {
		return "No highlights"
	}
	s := fmt.Sprintf("%d/%d matched", meta.Matched, meta.Total)
	if meta.Partial > 0 {
		s += fmt.Sprintf(", %d partial", meta.Partial)
	}
	if meta.Unmatched > 0 {
		s += fmt.Sprintf(", %d unmatched", meta.Unmatched)
	}
	return s
}

// runComparison performs the actual comparison between runs.
func runComparison(ctx context.Context, db *database.AnchorDB, bookTitle string, withRunID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	reports, err := db.GetRunHistory(ctx, bookTitle)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no run history found for %s", bookTitle)
	}

	if len(reports) < 2 && withRunID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(reports))
	}

	// Determine which runs to compare
	var currentReport, previousReport *model.CitationReport

	// Latest run is always the current one
	currentReport = reports[0]

	if withRunID > 0 {
		// Find the run with the specified ID
		previousReport, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run ID belongs to the same book
		if !strings.EqualFold(previousReport.BookTitle, currentReport.BookTitle) {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previousReport.BookTitle, currentReport.BookTitle)
		}
	} else if sinceDate != "" {
		// Parse the date and find the first (oldest) run at or after the specified date
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Runs are sorted by timestamp DESC (newest first), so iterate in
		// reverse to find the oldest run at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateVerified.After(parsedDate) || r.DateVerified.Equal(parsedDate) {
				previousReport = r
				break
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previousReport == currentReport {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous run
		previousReport = reports[1]
	}

	comparison := compareRuns(previousReport, currentReport)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two verification runs.
type ComparisonResult struct {
	// BookTitle is the compared book.
	BookTitle string `json:"book_title"`

	// PreviousRun contains tallies from the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains tallies from the current run.
	CurrentRun RunSummary `json:"current_run"`

	// NewlyUnmatched contains highlights that match in the previous run
	// but not in the current one.
	NewlyUnmatched []model.HighlightDigest `json:"newly_unmatched,omitempty"`

	// Recovered contains highlights that were unmatched previously and
	// now match.
	Recovered []model.HighlightDigest `json:"recovered,omitempty"`

	// StillUnmatched is the number of highlights unmatched in both runs.
	StillUnmatched int `json:"still_unmatched"`

	// CoverageChange describes the overall change in match coverage.
	CoverageChange CoverageChange `json:"coverage_change"`
}

// RunSummary contains tallies from one run for comparison display.
type RunSummary struct {
	// DateVerified is when the run was performed.
	DateVerified time.Time `json:"date_verified"`

	// Total is the number of highlights in this run.
	Total int `json:"total"`

	// Matched is the number of fully matched highlights.
	Matched int `json:"matched"`

	// Partial is the number of partially matched highlights.
	Partial int `json:"partial"`

	// Unmatched is the number of unmatched highlights.
	Unmatched int `json:"unmatched"`
}

// CoverageChange describes the change in match coverage between runs.
type CoverageChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// MatchedDelta is the change in matched highlight count.
	MatchedDelta int `json:"matched_delta"`

	// PartialDelta is the change in partially matched highlight count.
	PartialDelta int `json:"partial_delta"`

	// UnmatchedDelta is the change in unmatched highlight count.
	UnmatchedDelta int `json:"unmatched_delta"`
}

// compareRuns compares two runs and generates a comparison result.
func compareRuns(previous, current *model.CitationReport) *ComparisonResult {
	result := &ComparisonResult{
		BookTitle:   current.BookTitle,
		PreviousRun: runSummary(previous),
		CurrentRun:  runSummary(current),
	}

	// Build digest maps keyed by text and page for set comparison
	previousUnmatched := make(map[string]model.HighlightDigest)
	currentUnmatched := make(map[string]model.HighlightDigest)

	for _, d := range previous.UnmatchedHighlights {
		previousUnmatched[digestKey(d)] = d
	}
	for _, d := range current.UnmatchedHighlights {
		currentUnmatched[digestKey(d)] = d
	}

	// Newly unmatched: unmatched now but not before
	for key, d := range currentUnmatched {
		if _, exists := previousUnmatched[key]; !exists {
			result.NewlyUnmatched = append(result.NewlyUnmatched, d)
		}
	}

	// Recovered: unmatched before but not now
	for key, d := range previousUnmatched {
		if _, exists := currentUnmatched[key]; !exists {
			result.Recovered = append(result.Recovered, d)
		} else {
			result.StillUnmatched++
		}
	}

	result.CoverageChange = calculateCoverageChange(result.PreviousRun, result.CurrentRun)

	return result
}

// runSummary extracts comparison tallies from a citation report.
func runSummary(r *model.CitationReport) RunSummary {
	return RunSummary{
		DateVerified: r.DateVerified,
		Total:        r.Total,
		Matched:      r.Matched,
		Partial:      r.Partial,
		Unmatched:    r.Unmatched,
	}
}

// digestKey generates a unique key for a highlight digest for comparison purposes.
func digestKey(d model.HighlightDigest) string {
	return d.Text + "|" + strconv.Itoa(d.Page)
}

// calculateCoverageChange calculates the change in coverage between two runs.
func calculateCoverageChange(previous, current RunSummary) CoverageChange {
	change := CoverageChange{
		MatchedDelta:   current.Matched - previous.Matched,
		PartialDelta:   current.Partial - previous.Partial,
		UnmatchedDelta: current.Unmatched - previous.Unmatched,
	}

	// Unmatched highlights weigh more than partial ones: a partial match
	// still anchors to the right passage, an unmatched one is lost.
	previousScore := previous.Unmatched*10 + previous.Partial
	currentScore := current.Unmatched*10 + current.Partial

	if currentScore < previousScore {
		change.Direction = coverageImproved
	} else if currentScore > previousScore {
		change.Direction = coverageWorsened
	} else {
		change.Direction = coverageUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Run Comparison: %s\n\n", result.BookTitle)

	fmt.Println("## Summary")
	fmt.Printf("\n**Coverage:** %s\n\n", formatCoverageDirection(result.CoverageChange.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.DateVerified.Format("2006-01-02 15:04"),
		result.CurrentRun.DateVerified.Format("2006-01-02 15:04"))
	fmt.Printf("| Matched | %d | %d | %s |\n",
		result.PreviousRun.Matched,
		result.CurrentRun.Matched,
		formatDelta(result.CoverageChange.MatchedDelta))
	fmt.Printf("| Partial | %d | %d | %s |\n",
		result.PreviousRun.Partial,
		result.CurrentRun.Partial,
		formatDelta(result.CoverageChange.PartialDelta))
	fmt.Printf("| Unmatched | %d | %d | %s |\n",
		result.PreviousRun.Unmatched,
		result.CurrentRun.Unmatched,
		formatDelta(result.CoverageChange.UnmatchedDelta))
	fmt.Printf("| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousRun.Total,
		result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))

	if len(result.NewlyUnmatched) > 0 {
		fmt.Printf("\n## Newly Unmatched (%d)\n\n", len(result.NewlyUnmatched))
		for _, d := range result.NewlyUnmatched {
			fmt.Printf("- [p.%d] %s\n", d.Page, d.Text)
		}
	}

	if len(result.Recovered) > 0 {
		fmt.Printf("\n## Recovered (%d)\n\n", len(result.Recovered))
		for _, d := range result.Recovered {
			fmt.Printf("- ~~[p.%d] %s~~\n", d.Page, d.Text)
		}
	}

	if result.StillUnmatched > 0 {
		fmt.Printf("\n---\n\n*%d highlight(s) unmatched in both runs*\n", result.StillUnmatched)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Run Comparison: %s\n", result.BookTitle)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nCoverage: %s\n", formatCoverageDirection(result.CoverageChange.Direction))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.DateVerified.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.DateVerified.Format("2006-01-02 15:04:05"))

	fmt.Println("\nMatch Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Status", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Matched",
		result.PreviousRun.Matched, result.CurrentRun.Matched,
		formatDelta(result.CoverageChange.MatchedDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Partial",
		result.PreviousRun.Partial, result.CurrentRun.Partial,
		formatDelta(result.CoverageChange.PartialDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Unmatched",
		result.PreviousRun.Unmatched, result.CurrentRun.Unmatched,
		formatDelta(result.CoverageChange.UnmatchedDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousRun.Total, result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))

	if len(result.NewlyUnmatched) > 0 {
		fmt.Printf("\nNewly Unmatched (%d):\n", len(result.NewlyUnmatched))
		for _, d := range result.NewlyUnmatched {
			fmt.Printf("  [+] [p.%d] %s\n", d.Page, d.Text)
		}
	}

	if len(result.Recovered) > 0 {
		fmt.Printf("\nRecovered (%d):\n", len(result.Recovered))
		for _, d := range result.Recovered {
			fmt.Printf("  [-] [p.%d] %s\n", d.Page, d.Text)
		}
	}

	if result.StillUnmatched > 0 {
		fmt.Printf("\nStill unmatched: %d highlight(s)\n", result.StillUnmatched)
	}

	return nil
}

// formatCoverageDirection formats the coverage change direction for display.
func formatCoverageDirection(direction string) string {
	switch direction {
	case coverageImproved:
		return "IMPROVED (more highlights anchored)"
	case coverageWorsened:
		return "WORSENED (highlights lost their anchors)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
