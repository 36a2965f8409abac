package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SearchService provides similarity search to external actors.
type SearchService interface {
	// Search returns up to opts.TopK documents of a collection nearest to the
	// query, ordered by ascending distance. Failures wrap domain.ErrSearch or
	// domain.ErrConnection. An empty collection yields an empty slice.
	Search(ctx context.Context, collection, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
