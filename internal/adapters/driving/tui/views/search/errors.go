package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is required")

	// ErrNoCollection indicates a query was submitted before a collection was chosen.
	ErrNoCollection = errors.New("no collection selected")
)
