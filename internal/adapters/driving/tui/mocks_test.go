package tui

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(
		ctx context.Context, collection, query string, opts domain.SearchOptions,
	) ([]domain.SearchResult, error)
}

func (m *MockSearchService) Search(
	ctx context.Context, collection, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, collection, query, opts)
	}
	return []domain.SearchResult{}, nil
}

// MockCollectionService implements driving.CollectionService for testing.
type MockCollectionService struct {
	Collections []domain.Collection
	ListErr     error
}

func (m *MockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Collections, nil
}

func (m *MockCollectionService) Describe(_ context.Context, name string) (*domain.Collection, error) {
	for i := range m.Collections {
		if m.Collections[i].Name == name {
			return &m.Collections[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCollectionService) Drop(_ context.Context, _ string) error {
	return nil
}
