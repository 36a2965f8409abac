package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportOptions tunes an ImportService.
type ImportOptions struct {
	// Index is declared on every collection the service creates.
	Index domain.IndexSpec

	// InsertInterval paces inserts into stores without synchronous acknowledgement.
	InsertInterval time.Duration

	// Workers bounds parallel extraction and sizes the windows embedded in
	// one batch. Values below 1 mean 1.
	Workers int
}

// ImportService loads a directory into a freshly created collection.
type ImportService struct {
	store      driven.VectorStore
	reader     driven.SourceReader
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingService
	schema     *SchemaManager
	opts       ImportOptions
}

// NewImportService creates a new import service.
// The embedder must be the same instance the search service uses.
func NewImportService(
	store driven.VectorStore,
	reader driven.SourceReader,
	extractors driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	opts ImportOptions,
) *ImportService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	opts.Index = opts.Index.WithDefaults()
	return &ImportService{
		store:      store,
		reader:     reader,
		extractors: extractors,
		embedder:   embedder,
		schema:     NewSchemaManager(),
		opts:       opts,
	}
}

// prepared is an entry after extraction, normalisation and embedding.
type prepared struct {
	entry  driven.SourceEntry
	text   string
	vector []float32

	// skip is set when the entry could not be extracted.
	skip error
}

// Import replaces the collection with the documents found in dataPath.
func (s *ImportService) Import(ctx context.Context, dataPath, collection string) (*domain.ImportReport, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("%w: data path is required", domain.ErrInvalidInput)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	start := time.Now()
	report := &domain.ImportReport{
		RunID:      uuid.New().String(),
		Collection: collection,
	}

	logger.Section("Import")
	logger.Info("Run %s: importing %s into %q", report.RunID, dataPath, collection)

	// 1. Enumerate the directory
	entries, err := s.reader.List(ctx, dataPath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dataPath, err)
	}
	logger.Debug("Found %d entries", len(entries))

	// 2. Connect and replace the collection
	conn, err := s.store.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	dimension := s.embedder.Dimensions()
	if _, err := s.schema.Prepare(ctx, conn, collection, dimension, s.opts.Index); err != nil {
		return nil, err
	}

	// 3. Pace inserts only when the store does not confirm them
	var throttle *InsertThrottle
	if !conn.Capabilities().SynchronousInsert {
		throttle = NewInsertThrottle(s.opts.InsertInterval)
		logger.Debug("Store acknowledges asynchronously, throttling inserts every %s", s.opts.InsertInterval)
	}

	// 4. Process entries in windows; ids follow enumeration order
	var nextID int64
	for startIdx := 0; startIdx < len(entries); startIdx += s.opts.Workers {
		end := min(startIdx+s.opts.Workers, len(entries))

		batch, err := s.prepareBatch(ctx, entries[startIdx:end])
		if err != nil {
			return nil, err
		}
		if err := s.embedBatch(ctx, batch, dimension); err != nil {
			return nil, err
		}

		for _, p := range batch {
			if p.skip != nil {
				logger.Warn("Skipping %s: %v", p.entry.Name, p.skip)
				report.Skipped = append(report.Skipped, domain.SkippedEntry{
					Name:   p.entry.Name,
					Reason: p.skip.Error(),
				})
				continue
			}

			doc := domain.Document{
				ID:         nextID,
				SourceName: domain.TruncateUTF8(p.entry.Name, domain.MaxSourceNameLength),
				Text:       domain.TruncateUTF8(p.text, domain.MaxTextLength),
				Embedding:  p.vector,
			}
			if err := doc.Validate(dimension); err != nil {
				return nil, fmt.Errorf("document %s: %w", p.entry.Name, err)
			}

			if err := throttle.Wait(ctx); err != nil {
				return nil, fmt.Errorf("throttle: %w", err)
			}
			if err := conn.Insert(ctx, collection, doc); err != nil {
				return nil, fmt.Errorf("insert %s: %w", p.entry.Name, err)
			}

			logger.Info("Inserted %s as id %d", p.entry.Name, doc.ID)
			nextID++
		}
	}

	report.Imported = int(nextID)
	report.Duration = time.Since(start)
	logger.Info("Imported %d documents into %q (%d skipped) in %s",
		report.Imported, collection, len(report.Skipped), report.Duration)

	return report, nil
}

// prepareBatch extracts and normalises entries concurrently.
// Results keep the input order. The first fatal error cancels the batch.
func (s *ImportService) prepareBatch(
	ctx context.Context, entries []driven.SourceEntry,
) ([]prepared, error) {
	results := make([]prepared, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, entry := range entries {
		g.Go(func() error {
			p, err := s.prepare(gctx, entry)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// prepare turns one entry into normalised text.
// Extraction failures are reported through prepared.skip; anything else is fatal.
func (s *ImportService) prepare(ctx context.Context, entry driven.SourceEntry) (prepared, error) {
	p := prepared{entry: entry}

	if entry.IsDir {
		p.skip = fmt.Errorf("%w: %s is a directory", domain.ErrExtraction, entry.Name)
		return p, nil
	}

	raw, err := s.reader.Read(ctx, entry)
	if err != nil {
		if isExtractionFailure(err) {
			p.skip = err
			return p, nil
		}
		return p, fmt.Errorf("read %s: %w", entry.Name, err)
	}

	text, err := s.extractors.Extract(ctx, raw)
	if err != nil {
		if isExtractionFailure(err) {
			p.skip = err
			return p, nil
		}
		return p, fmt.Errorf("extract %s: %w", entry.Name, err)
	}

	p.text = domain.NormaliseText(text)
	return p, nil
}

// embedBatch embeds the extracted texts of a window in one provider call.
func (s *ImportService) embedBatch(ctx context.Context, batch []prepared, dimension int) error {
	var (
		texts []string
		names []string
		idx   []int
	)
	for i, p := range batch {
		if p.skip != nil {
			continue
		}
		texts = append(texts, p.text)
		names = append(names, p.entry.Name)
		idx = append(idx, i)
	}
	if len(texts) == 0 {
		return nil
	}

	what := strings.Join(names, ", ")
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return fmt.Errorf("embed %s: %w", what, err)
		}
		return fmt.Errorf("%w: embed %s: %w", domain.ErrEmbedding, what, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embed %s: got %d vectors for %d texts",
			domain.ErrEmbedding, what, len(vectors), len(texts))
	}

	for j, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: embed %s: got %d dimensions, want %d",
				domain.ErrEmbedding, names[j], len(v), dimension)
		}
		batch[idx[j]].vector = v
	}
	return nil
}

func isExtractionFailure(err error) bool {
	return errors.Is(err, domain.ErrExtraction) || errors.Is(err, domain.ErrUnsupportedType)
}
