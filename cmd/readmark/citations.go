package main

import (
	"fmt"
	"strings"

	"github.com/readmark/readmark/internal/backup"
	"github.com/spf13/cobra"
)

// NewCitationsCmd creates the citations command.
// This command prints the highlights recorded for one book.
func NewCitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citations <book-file-or-title>",
		Short: "Show the highlights recorded for a book",
		Long: `Citations prints every highlight the backup holds for one book, in
reading order, together with the page the reader recorded and any
attached note.

The book is matched by file path or by case-insensitive title
substring, the same way 'readmark annotate' resolves its arguments.

Examples:
  # Show highlights for a book by title
  readmark citations "walden"

  # Show highlights including attached notes
  readmark citations --notes walden.epub

  # Read from a specific backup
  readmark citations --backup ReadEra-2026-08-01.bak "walden"`,
		Args: cobra.ExactArgs(1),
		RunE: runCitationsCmd,
	}

	cmd.Flags().StringP("backup", "b", "",
		"ReadEra backup file (default: $READERA_BACKUP, then newest *.bak in current directory)")
	cmd.Flags().Bool("notes", false,
		"Include attached notes in the output")

	return cmd
}

// runCitationsCmd executes the citations command.
func runCitationsCmd(cmd *cobra.Command, args []string) error {
	backupFlag, err := cmd.Flags().GetString("backup")
	if err != nil {
		return err
	}
	showNotes, err := cmd.Flags().GetBool("notes")
	if err != nil {
		return err
	}

	backupPath, err := resolveBackup(backupFlag)
	if err != nil {
		return err
	}

	books, err := backup.Read(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backupPath, err)
	}

	book, err := backup.FindBook(books, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s", book.Title)
	if book.Author != "" {
		fmt.Fprintf(out, " by %s", book.Author)
	}
	fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("=", 60))

	if len(book.Highlights) == 0 {
		fmt.Fprintln(out, "No highlights recorded for this book.")
		return nil
	}

	for i, h := range book.Highlights {
		fmt.Fprintf(out, "%3d. [p.%d] %s\n", i+1, h.Hint.Page, h.Text)
		if showNotes && h.Note != "" {
			fmt.Fprintf(out, "     note: %s\n", h.Note)
		}
	}

	fmt.Fprintf(out, "\n%d highlight(s)\n", len(book.Highlights))
	return nil
}
