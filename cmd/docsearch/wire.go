package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsearch/internal/connectors/filesystem"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/services"
	"github.com/custodia-labs/docsearch/internal/extractors"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// pipeline is the set of wired services and the resources they hold.
type pipeline struct {
	services cli.Services
	closers  []io.Closer
}

// Close releases the store and the embedding service.
func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newVectorStore opens the store selected by settings.
// The returned closer is nil for stores holding no resources.
func newVectorStore(settings domain.StoreSettings) (driven.VectorStore, io.Closer, error) {
	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case domain.StoreBackendMemory:
		return memory.NewVectorStore(), nil, nil

	case domain.StoreBackendQdrant:
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        settings.URI,
			APIKey:     settings.Token,
			WaitForAck: settings.WaitForAck,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// buildPipeline wires the import, search and collection services.
func buildPipeline(settings *domain.AppSettings) (*pipeline, error) {
	store, storeCloser, err := newVectorStore(settings.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", settings.Store.Backend, err)
	}

	p := &pipeline{}
	if storeCloser != nil {
		p.closers = append(p.closers, storeCloser)
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.closers = append(p.closers, embedder)

	logger.Debug("wired %s store with %s embeddings (%s)",
		settings.Store.Backend, settings.Embedding.Provider, embedder.ModelName())

	p.services = cli.Services{
		Import: services.NewImportService(
			store,
			filesystem.NewReader(),
			extractors.DefaultRegistry(),
			embedder,
			services.ImportOptions{
				Index:          settings.Index.Spec(),
				InsertInterval: settings.Ingest.InsertInterval,
				Workers:        settings.Ingest.Workers,
			},
		),
		Search:      services.NewSearchService(store, embedder, domain.SearchOptions{TopK: settings.Search.TopK}),
		Collections: services.NewCollectionService(store),
	}
	return p, nil
}
