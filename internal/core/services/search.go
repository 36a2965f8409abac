package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// outputFields are the scalar fields projected into every result.
var outputFields = []string{domain.FieldSourceName, domain.FieldText}

// SearchService answers top-k nearest-neighbour queries over a collection.
type SearchService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	defaults domain.SearchOptions
}

// NewSearchService creates a new search service.
// Zero values in defaults fall back to domain.DefaultTopK and the index nprobe.
func NewSearchService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	defaults domain.SearchOptions,
) *SearchService {
	return &SearchService{
		store:    store,
		embedder: embedder,
		defaults: defaults,
	}
}

// Search returns the documents nearest to query, nearest first.
func (s *SearchService) Search(
	ctx context.Context, collection, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Collection: %q, query: %q", collection, query)

	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrSearch)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.defaults.TopK
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	nprobe := opts.NProbe
	if nprobe <= 0 {
		nprobe = s.defaults.NProbe
	}
	logger.Debug("TopK: %d, NProbe: %d", topK, nprobe)

	// 1. Connect and make the collection query-ready
	conn, err := s.store.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	info, err := conn.Describe(ctx, collection)
	if err != nil {
		return nil, searchError("resolve collection "+collection, err)
	}
	if err := conn.Load(ctx, collection); err != nil {
		return nil, searchError("load collection "+collection, err)
	}
	if info.Count == 0 {
		logger.Debug("Collection %q is empty", collection)
		return []domain.SearchResult{}, nil
	}

	// 2. Embed the query in the same space as the stored documents
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, searchError("embed query", err)
	}

	// 3. Nearest-neighbour search
	done := logger.Timed("search %s", collection)
	hits, err := conn.Search(ctx, collection, driven.SearchRequest{
		Vector:       vector,
		Limit:        topK,
		NProbe:       nprobe,
		OutputFields: outputFields,
	})
	done()
	if err != nil {
		return nil, searchError("query "+collection, err)
	}

	// 4. Nearest first, ties by id
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	// 5. Project
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.SearchResult{
			ID:         h.ID,
			SourceName: h.Fields[domain.FieldSourceName],
			Text:       h.Fields[domain.FieldText],
			Distance:   h.Distance,
		})
	}

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// searchError tags failures as search errors unless they are connection errors.
func searchError(action string, err error) error {
	if errors.Is(err, domain.ErrConnection) || errors.Is(err, domain.ErrSearch) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrSearch, action, err)
}
