package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/adapters/driving/tui"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var (
	tuiLimit  int
	tuiNProbe int
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [collection]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive search screen.

Without an argument a collection picker is shown first.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Open
  n        - New query
  Esc      - Back
  ?        - Help
  Ctrl+C   - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiLimit, "limit", "n", 0, "results per query (0 = configured default)")
	tuiCmd.Flags().IntVar(&tuiNProbe, "nprobe", 0, "partitions to scan (0 = index setting)")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the app from the installed services.
func newTUIApp(cmd *cobra.Command, args []string) (*tui.App, error) {
	if searchService == nil || collectionService == nil {
		return nil, unavailable("tui")
	}

	ports := tui.NewPorts(searchService, collectionService)
	ports.SearchOptions = domain.SearchOptions{TopK: tuiLimit, NProbe: tuiNProbe}

	app, err := tui.NewApp(ports)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app.WithContext(ctx)
	if len(args) == 1 {
		app.WithCollection(args[0])
	}
	return app, nil
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := newTUIApp(cmd, args)
	if err != nil {
		return err
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
