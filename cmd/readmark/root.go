// Package main provides the entry point for the readmark CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for readmark.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readmark",
		Short: "Anchor ebook reader highlights onto PDF files",
		Long: `readmark reads highlights from a ReadEra backup (.bak) and overlays them
as annotations onto a PDF rendering of the same book. Non-PDF books are
rendered through Calibre's ebook-convert first.

Every highlight is located in the PDF text by exact or approximate
matching, and a citation report tells you which highlights could not be
anchored.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewTitlesCmd())
	cmd.AddCommand(NewCitationsCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
