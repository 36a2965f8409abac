// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Collection string
	Results    []domain.SearchResult
	Err        error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewCollections lists collections to search.
	ViewCollections ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewDocument shows the full text of one result.
	ViewDocument
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewCollections:
		return "collections"
	case ViewSearch:
		return "search"
	case ViewDocument:
		return "document"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// CollectionsLoaded carries the list of collections from the service.
type CollectionsLoaded struct {
	Collections []domain.Collection
	Err         error
}

// CollectionSelected signals a collection was chosen for searching.
type CollectionSelected struct {
	Collection domain.Collection
}

// ResultSelected signals a search result was opened.
type ResultSelected struct {
	Result domain.SearchResult
}
