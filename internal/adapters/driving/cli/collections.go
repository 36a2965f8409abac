package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var (
	collectionsJSON bool
	dropYes         bool
)

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"collection", "col"},
	Short:   "Inspect and remove collections",
	RunE:    runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionsList,
}

var collectionsDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show a collection's schema, index and document count",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDescribe,
}

var collectionsDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Delete a collection and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDrop,
}

func init() {
	collectionsCmd.PersistentFlags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
	collectionsDropCmd.Flags().BoolVarP(&dropYes, "yes", "y", false, "do not ask for confirmation")

	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsDescribeCmd)
	collectionsCmd.AddCommand(collectionsDropCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return unavailable("collections")
	}

	collections, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if collectionsJSON {
		return printJSON(cmd, collections)
	}

	if len(collections) == 0 {
		cmd.Println("No collections. Run 'docsearch import <dir> <collection>' to create one.")
		return nil
	}

	heading(cmd, fmt.Sprintf("%-24s %8s %6s  %s", "NAME", "DOCS", "DIM", "INDEX"))
	for i := range collections {
		c := &collections[i]
		cmd.Printf("%-24s %8d %6d  %s\n", c.Name, c.Count, c.Dimension, indexSummary(c))
	}
	return nil
}

func runCollectionsDescribe(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return unavailable("collections")
	}

	c, err := collectionService.Describe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to describe collection: %w", err)
	}

	if collectionsJSON {
		return printJSON(cmd, c)
	}

	heading(cmd, c.Name)
	cmd.Printf("  Documents: %d\n", c.Count)
	cmd.Printf("  Dimension: %d\n", c.Dimension)
	cmd.Printf("  Loaded:    %t\n", c.Loaded)
	cmd.Printf("  Index:     %s\n", indexSummary(c))
	if c.HasIndex() && c.Index.Kind == domain.IndexIVFFlat {
		cmd.Printf("  NList:     %d\n", c.Index.Params.NList)
		cmd.Printf("  NProbe:    %d\n", c.Index.Params.NProbe)
	}
	if len(c.Schema.Fields) > 0 {
		cmd.Println("  Fields:")
		for _, f := range c.Schema.Fields {
			cmd.Printf("    %s\n", describeField(f))
		}
	}
	return nil
}

func runCollectionsDrop(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return unavailable("collections")
	}
	name := args[0]

	if !dropYes {
		cmd.Printf("Drop collection %q and all its documents? [y/N]: ", name)
		answer := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := collectionService.Drop(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	cmd.Printf("%s collection %q\n", color.RedString("Dropped"), name)
	return nil
}

func indexSummary(c *domain.Collection) string {
	if !c.HasIndex() {
		return "none"
	}
	return fmt.Sprintf("%s/%s", c.Index.Kind, c.Index.Metric)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func describeField(f domain.FieldSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %s", f.Name, f.Type)
	switch f.Type {
	case domain.FieldTypeVarChar:
		fmt.Fprintf(&b, "(%d)", f.MaxLength)
	case domain.FieldTypeFloatVector:
		fmt.Fprintf(&b, "(%d)", f.Dimension)
	}
	if f.Primary {
		b.WriteString(" primary")
	}
	return b.String()
}
