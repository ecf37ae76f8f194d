package main

import (
	"fmt"
	"strings"

	"github.com/readmark/readmark/internal/backup"
	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/normalize"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
// This command checks backups against each other for lost highlights.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [book-title]",
		Short: "Check backups for highlights lost between them",
		Long: `Verify builds the union of every highlight found across all backups in
a directory and reports which highlights each individual backup lacks.

Readers occasionally drop highlights when a book file is moved or
re-imported. Comparing backups against their union catches these
losses before an old backup is deleted.

With a book title argument, only that book is checked.

Examples:
  # Check all backups in the current directory
  readmark verify

  # Check backups in a specific directory
  readmark verify --dir ~/backups

  # Check a single book across backups
  readmark verify "walden"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runVerifyCmd,
	}

	cmd.Flags().StringP("dir", "d", ".",
		"Directory holding the ReadEra backups to compare")

	return cmd
}

// runVerifyCmd executes the verify command.
func runVerifyCmd(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}

	paths, err := backup.List(dir)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("at least 2 backups are required for verification (found %d in %s)", len(paths), dir)
	}

	// Read every backup, remembering which books each one holds
	bookSets := make([][]model.Book, 0, len(paths))
	for _, path := range paths {
		books, err := backup.Read(path)
		if err != nil {
			return fmt.Errorf("failed to read backup %s: %w", path, err)
		}
		bookSets = append(bookSets, books)
	}

	union := backup.Union(bookSets...)

	// Optional book filter
	if len(args) == 1 {
		book, err := backup.FindBook(union, args[0])
		if err != nil {
			return err
		}
		union = []model.Book{*book}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparing %d backups in %s\n\n", len(paths), dir)

	lossCount := 0
	for i, path := range paths {
		byTitle := make(map[string]model.Book, len(bookSets[i]))
		for _, b := range bookSets[i] {
			byTitle[normalize.Fold(b.Title)] = b
		}

		var lines []string
		for _, want := range union {
			got := byTitle[normalize.Fold(want.Title)]
			missing := backup.Missing(want, got)
			for _, h := range missing {
				lines = append(lines, fmt.Sprintf("    %s: %s", want.Title, model.Truncate(h.Text)))
			}
			lossCount += len(missing)
		}

		if len(lines) == 0 {
			fmt.Fprintf(out, "  [OK]      %s\n", path)
			continue
		}
		fmt.Fprintf(out, "  [MISSING] %s (%d highlight(s) absent)\n", path, len(lines))
		fmt.Fprintln(out, strings.Join(lines, "\n"))
	}

	if lossCount == 0 {
		fmt.Fprintln(out, "\nAll backups hold the complete highlight set.")
		return nil
	}
	fmt.Fprintf(out, "\n%d highlight(s) are absent from at least one backup.\n", lossCount)
	fmt.Fprintln(out, "Keep the newest backup that contains them before pruning old files.")
	return nil
}
