package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// CollectionService inspects and removes collections.
type CollectionService interface {
	// List returns every collection with its metadata, sorted by name.
	List(ctx context.Context) ([]domain.Collection, error)

	// Describe returns one collection. Returns domain.ErrNotFound if missing.
	Describe(ctx context.Context, name string) (*domain.Collection, error)

	// Drop removes a collection. Returns domain.ErrNotFound if missing.
	Drop(ctx context.Context, name string) error
}
