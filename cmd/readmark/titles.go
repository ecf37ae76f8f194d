package main

import (
	"fmt"
	"strings"

	"github.com/readmark/readmark/internal/backup"
	"github.com/spf13/cobra"
)

// NewTitlesCmd creates the titles command.
// This command lists the books recorded in a backup, with highlight counts.
func NewTitlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List the books recorded in a backup",
		Long: `Titles lists every book in the reader backup together with its author,
highlight count, and the file name the reader recorded for it.

Use this to find the exact title or file name to pass to
'readmark annotate' or 'readmark citations'.

Examples:
  # List books in the newest backup found in the current directory
  readmark titles

  # List books in a specific backup
  readmark titles --backup ReadEra-2026-08-01.bak

  # Only show books that have highlights
  readmark titles --highlighted`,
		Args: cobra.NoArgs,
		RunE: runTitlesCmd,
	}

	cmd.Flags().StringP("backup", "b", "",
		"ReadEra backup file (default: $READERA_BACKUP, then newest *.bak in current directory)")
	cmd.Flags().Bool("highlighted", false,
		"Only show books that have at least one highlight")

	return cmd
}

// runTitlesCmd executes the titles command.
func runTitlesCmd(cmd *cobra.Command, _ []string) error {
	backupFlag, err := cmd.Flags().GetString("backup")
	if err != nil {
		return err
	}
	highlightedOnly, err := cmd.Flags().GetBool("highlighted")
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

	shown := 0
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Books in %s:\n\n", backupPath)
	fmt.Fprintf(out, "  %-40s  %-24s  %10s  %s\n", "Title", "Author", "Highlights", "File")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, book := range books {
		if highlightedOnly && len(book.Highlights) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-40s  %-24s  %10d  %s\n",
			clip(book.Title, 40), clip(book.Author, 24), len(book.Highlights), book.FileName)
		shown++
	}

	fmt.Fprintf(out, "\n%d book(s)\n", shown)
	return nil
}

// clip shortens s to at most n runes for column display.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
