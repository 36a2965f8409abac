package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// DataImportInput is the input schema for the data_import tool.
type DataImportInput struct {
	DataPath       string `json:"data_path" jsonschema:"directory whose files are imported; subdirectories are ignored"`
	CollectionName string `json:"collection_name" jsonschema:"collection to create, replacing any existing one"`
}

// DataImportOutput is the output schema for the data_import tool.
type DataImportOutput struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// SimilaritySearchInput is the input schema for the similarity_search tool.
type SimilaritySearchInput struct {
	Query      string `json:"query" jsonschema:"natural-language text to find similar documents for"`
	Collection string `json:"collection" jsonschema:"collection to search"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 2)"`
}

// SimilaritySearchOutput is the output schema for the similarity_search tool.
type SimilaritySearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`

	// Error is set when the search failed; Results is then empty.
	Error string `json:"error,omitempty"`
}

// SearchResultOutput represents a single search hit.
type SearchResultOutput struct {
	ID         int64   `json:"id"`
	SourceName string  `json:"source_name"`
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "data_import",
		Description: "Import every file directly inside a directory into a collection, replacing its previous contents",
	}, s.handleDataImport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "similarity_search",
		Description: "Find the documents of a collection most similar to a query",
	}, s.handleSimilaritySearch)
}

// handleDataImport runs an import. Failures are reported in the output, not
// as tool errors.
func (s *Server) handleDataImport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DataImportInput,
) (*mcp.CallToolResult, DataImportOutput, error) {
	path := input.DataPath
	if s.ports.ResolvePath != nil && path != "" {
		resolved, err := s.ports.ResolvePath(path)
		if err != nil {
			return nil, importFailure(err), nil
		}
		path = resolved
	}

	report, err := s.ports.Import.Import(ctx, path, input.CollectionName)
	if err != nil {
		logger.Error("data_import %s into %q: %v", path, input.CollectionName, err)
		return nil, importFailure(err), nil
	}

	return nil, DataImportOutput{
		Success:  true,
		Message:  fmt.Sprintf("data imported successfully: %d documents into %q", report.Imported, report.Collection),
		Imported: report.Imported,
		Skipped:  len(report.Skipped),
	}, nil
}

func importFailure(err error) DataImportOutput {
	return DataImportOutput{
		Success: false,
		Message: fmt.Sprintf("data import failed: %v", err),
	}
}

// handleSimilaritySearch runs a search. Any failure yields an empty result
// list with the cause in Error.
func (s *Server) handleSimilaritySearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SimilaritySearchInput,
) (*mcp.CallToolResult, SimilaritySearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	results, err := s.ports.Search.Search(ctx, input.Collection, input.Query, domain.SearchOptions{TopK: topK})
	if err != nil {
		logger.Error("similarity_search in %q: %v", input.Collection, err)
		return nil, SimilaritySearchOutput{
			Results: []SearchResultOutput{},
			Error:   err.Error(),
		}, nil
	}

	output := SimilaritySearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = SearchResultOutput{
			ID:         r.ID,
			SourceName: r.SourceName,
			Text:       r.Text,
			Distance:   r.Distance,
		}
	}

	return nil, output, nil
}
