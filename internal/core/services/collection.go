package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService lists, describes and drops collections.
type CollectionService struct {
	store driven.VectorStore
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store driven.VectorStore) *CollectionService {
	return &CollectionService{store: store}
}

// List returns every collection, sorted by name.
func (s *CollectionService) List(ctx context.Context) ([]domain.Collection, error) {
	conn, err := s.store.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	names, err := conn.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	collections := make([]domain.Collection, 0, len(names))
	for _, name := range names {
		c, err := conn.Describe(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", name, err)
		}
		collections = append(collections, *c)
	}
	return collections, nil
}

// Describe returns one collection.
func (s *CollectionService) Describe(ctx context.Context, name string) (*domain.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	conn, err := s.store.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c, err := conn.Describe(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	return c, nil
}

// Drop removes a collection.
func (s *CollectionService) Drop(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	conn, err := s.store.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	exists, err := conn.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err := conn.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	return nil
}
