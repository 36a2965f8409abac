// Package tui provides an interactive terminal user interface for searching
// collections. It is a driving adapter over the core services.
package tui

import (
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Search runs similarity queries.
	Search driving.SearchService

	// Collections lists the collections that can be searched.
	Collections driving.CollectionService

	// SearchOptions is passed to every query. Zero values use the
	// search service defaults.
	SearchOptions domain.SearchOptions
}

// NewPorts creates a new Ports aggregate.
func NewPorts(search driving.SearchService, collections driving.CollectionService) *Ports {
	return &Ports{Search: search, Collections: collections}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	return nil
}
