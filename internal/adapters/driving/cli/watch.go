package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/connectors/filesystem"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// watchDir is replaced in tests.
var watchDir = filesystem.Watch

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir> <collection>",
	Short: "Re-import a directory whenever it changes",
	Long: `Imports <dir> into <collection>, then watches the directory and runs a
full import again after files are created, changed, renamed or removed.

Bursts of changes are coalesced: the import starts once the directory has been
quiet for --debounce. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before re-importing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if importService == nil {
		return unavailable("import")
	}
	if watchDebounce <= 0 {
		return fmt.Errorf("--debounce must be positive, got %s", watchDebounce)
	}

	dir, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return err
	}
	collection := args[1]
	ctx := cmd.Context()

	if err := watchImport(cmd, dir, collection); err != nil {
		return err
	}

	changes, err := watchDir(ctx, dir, watchDebounce)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for change := range changes {
		logger.Info("changes in %s: %s", dir, strings.Join(change.Names, ", "))
		cmd.Printf("%d changed: %s\n", len(change.Names), strings.Join(change.Names, ", "))
		if err := watchImport(cmd, dir, collection); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			// Keep watching; the next change may fix the directory.
			logger.Error("%v", err)
			cmd.PrintErrf("%v\n", err)
		}
	}
	return nil
}

func watchImport(cmd *cobra.Command, dir, collection string) error {
	report, err := importService.Import(cmd.Context(), dir, collection)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	printImportReport(cmd, report)
	return nil
}
