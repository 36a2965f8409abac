package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/connectors/filesystem"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var importCmd = &cobra.Command{
	Use:   "import <dir> <collection>",
	Short: "Import a directory into a collection",
	Long: `Reads every file directly inside <dir>, extracts and normalises its text,
embeds it and writes it to <collection>. An existing collection with the same
name is dropped first, so an import always replaces the previous contents.

Files whose text cannot be extracted are skipped and listed in the report.
Subdirectories are not descended into.

Examples:
  docsearch import ./notes notes
  docsearch import ~/papers papers --verbose`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return unavailable("import")
	}

	dir, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return err
	}
	collection := args[1]

	report, err := importService.Import(cmd.Context(), dir, collection)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printImportReport(cmd, report)
	return nil
}

func printImportReport(cmd *cobra.Command, report *domain.ImportReport) {
	cmd.Printf("%s %d documents into %q in %s\n",
		color.GreenString("Imported"), report.Imported, report.Collection,
		report.Duration.Round(time.Millisecond))

	if len(report.Skipped) > 0 {
		cmd.Printf("%s %d entries:\n", color.YellowString("Skipped"), len(report.Skipped))
		for _, s := range report.Skipped {
			cmd.Printf("  %s: %s\n", s.Name, s.Reason)
		}
	}
	if report.RunID != "" {
		cmd.Printf("Run ID: %s\n", report.RunID)
	}
}
