// Package cli implements the docsearch command line on top of cobra.
// Commands reach the core through driving ports installed by main.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/custodia-labs/docsearch/internal/adapters/driving/cli.version=1.2.3"
	version = "dev"
	logo    = "\n" +
		"     _                                  _\n" +
		"  __| | ___   ___ ___  ___  __ _ _ __ ___| |__\n" +
		" / _` |/ _ \\ / __/ __|/ _ \\/ _` | '__/ __| '_ \\\n" +
		"| (_| | (_) | (__\\__ \\  __/ (_| | | | (__| | | |\n" +
		" \\__,_|\\___/ \\___|___/\\___|\\__,_|_|  \\___|_| |_|\n"
)

// verbose enables debug logging for every command.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Import documents and run similarity search over them",
	Long: color.CyanString(logo) + `
Import a directory of documents into a named vector collection and query it
by meaning with similarity search. The same operations are served to AI
assistants over MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Services holds the driving ports used by the commands.
type Services struct {
	Import      driving.ImportService
	Search      driving.SearchService
	Collections driving.CollectionService
}

var (
	importService     driving.ImportService
	searchService     driving.SearchService
	collectionService driving.CollectionService
	settingsService   driving.SettingsService

	// startupErr is why the pipeline could not be built. Commands that need
	// it return this error; settings commands keep working.
	startupErr error
)

// ErrNotConfigured is returned when a command runs without its service.
var ErrNotConfigured = errors.New("service not configured")

// SetServices installs the pipeline services.
func SetServices(s Services) {
	importService = s.Import
	searchService = s.Search
	collectionService = s.Collections
}

// SetSettingsService installs the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetStartupError records why the pipeline services are missing.
func SetStartupError(err error) {
	startupErr = err
}

// unavailable explains a missing service.
func unavailable(name string) error {
	if startupErr != nil {
		return fmt.Errorf("%s unavailable: %w", name, startupErr)
	}
	return fmt.Errorf("%s: %w", name, ErrNotConfigured)
}

// heading prints a bold section title.
func heading(cmd *cobra.Command, title string) {
	cmd.Println(color.New(color.Bold).Sprint(title))
}
