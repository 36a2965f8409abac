// Package mcp exposes document import and similarity search as Model Context
// Protocol tools, so AI assistants can load and query collections.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingImportService is returned when the import service is not provided.
	ErrMissingImportService = errors.New("mcp: import service is required")
)
