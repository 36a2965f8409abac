package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// previewLength bounds the text shown per result in table output.
const previewLength = 160

var (
	searchLimit   int
	searchNProbe  int
	searchJSON    bool
	searchLenient bool
)

var searchCmd = &cobra.Command{
	Use:   "search <collection> <query>",
	Short: "Search a collection by similarity",
	Long: `Embeds the query with the configured provider and returns the nearest
documents in <collection>, closest first.

With --lenient any failure prints an empty result list instead of an error.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().IntVar(&searchNProbe, "nprobe", 0, "partitions to scan (0 = index setting)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchLenient, "lenient", false, "print no results instead of failing")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLimit < 0 || searchNProbe < 0 {
		return fmt.Errorf("%w: --limit and --nprobe must not be negative", domain.ErrInvalidInput)
	}

	collection := args[0]
	query := strings.Join(args[1:], " ")

	results, err := search(cmd, collection, query)
	if err != nil {
		if !searchLenient {
			return fmt.Errorf("search failed: %w", err)
		}
		logger.Error("search %q in %s: %v", query, collection, err)
		results = []domain.SearchResult{}
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

func search(cmd *cobra.Command, collection, query string) ([]domain.SearchResult, error) {
	if searchService == nil {
		return nil, unavailable("search")
	}
	opts := domain.SearchOptions{
		TopK:   searchLimit,
		NProbe: searchNProbe,
	}
	return searchService.Search(cmd.Context(), collection, query, opts)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	heading(cmd, "Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s %s\n", r.ID, r.SourceName, color.HiBlackString("(%.4f)", r.Distance))
		if preview := preview(r.Text); preview != "" {
			cmd.Printf("      %s\n", preview)
		}
		cmd.Println()
	}
}

// preview shortens text to previewLength runes.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength-3]) + "..."
}
