package mcp

import (
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Import backs the data_import tool.
	Import driving.ImportService

	// Search backs the similarity_search tool.
	Search driving.SearchService

	// Collections backs the collection resources. Optional.
	Collections driving.CollectionService

	// ResolvePath normalises data_path before import. Optional; paths are
	// passed through unchanged when nil.
	ResolvePath func(string) (string, error)
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Import == nil {
		return ErrMissingImportService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
