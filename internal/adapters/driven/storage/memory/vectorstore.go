package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/index/ivf"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Option configures a VectorStore.
type Option func(*VectorStore)

// WithAsyncInsert makes the store report unacknowledged inserts, as a remote
// cluster without write confirmation would.
func WithAsyncInsert() Option {
	return func(s *VectorStore) {
		s.caps.SynchronousInsert = false
	}
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Data lives as long as the store value.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	caps        driven.StoreCapabilities
	open        int
}

// collection is the in-memory state of one collection.
type collection struct {
	schema domain.CollectionSchema
	index  *domain.IndexSpec
	docs   []domain.Document
	ids    map[int64]struct{}

	// loaded is the search-ready index; nil until Load and after writes.
	loaded *ivf.Index
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore(opts ...Option) *VectorStore {
	s := &VectorStore{
		collections: make(map[string]*collection),
		caps:        driven.StoreCapabilities{SynchronousInsert: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a connection.
func (s *VectorStore) Connect(_ context.Context) (driven.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open++
	return &Connection{store: s}, nil
}

// OpenConnections returns the number of connections not yet closed.
func (s *VectorStore) OpenConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Connection is a handle on a VectorStore.
type Connection struct {
	store  *VectorStore
	closed bool
}

// Capabilities reports optional behaviour.
func (c *Connection) Capabilities() driven.StoreCapabilities {
	return c.store.caps
}

// HasCollection reports whether a collection exists.
func (c *Connection) HasCollection(_ context.Context, name string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	_, ok := c.store.collections[name]
	return ok, nil
}

// CreateCollection creates an empty collection.
func (c *Connection) CreateCollection(_ context.Context, schema domain.CollectionSchema) error {
	if err := c.check(); err != nil {
		return err
	}
	if schema.Dimension() <= 0 {
		return fmt.Errorf("%w: collection %s has no vector field", domain.ErrSchema, schema.Name)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, ok := c.store.collections[schema.Name]; ok {
		return fmt.Errorf("collection %s: %w", schema.Name, domain.ErrAlreadyExists)
	}
	c.store.collections[schema.Name] = &collection{
		schema: schema,
		ids:    make(map[int64]struct{}),
	}
	return nil
}

// DropCollection removes a collection.
func (c *Connection) DropCollection(_ context.Context, name string) error {
	if err := c.check(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.collections, name)
	return nil
}

// CreateIndex declares the collection index.
func (c *Connection) CreateIndex(_ context.Context, name string, spec domain.IndexSpec) error {
	if err := c.check(); err != nil {
		return err
	}
	spec = spec.WithDefaults()
	if _, err := ivf.New(spec, 1); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	col, ok := c.store.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	col.index = &spec
	col.loaded = nil
	return nil
}

// Insert appends a document.
func (c *Connection) Insert(_ context.Context, name string, doc domain.Document) error {
	if err := c.check(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	col, ok := c.store.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err := doc.Validate(col.schema.Dimension()); err != nil {
		return err
	}
	if _, dup := col.ids[doc.ID]; dup {
		return fmt.Errorf("document %d: %w", doc.ID, domain.ErrAlreadyExists)
	}
	doc.Embedding = append([]float32(nil), doc.Embedding...)
	col.docs = append(col.docs, doc)
	col.ids[doc.ID] = struct{}{}
	col.loaded = nil
	return nil
}

// Describe returns collection metadata.
func (c *Connection) Describe(_ context.Context, name string) (*domain.Collection, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	col, ok := c.store.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	out := &domain.Collection{
		Name:      name,
		Dimension: col.schema.Dimension(),
		Schema:    col.schema,
		Count:     int64(len(col.docs)),
		Loaded:    col.loaded != nil,
	}
	if col.index != nil {
		spec := *col.index
		out.Index = &spec
	}
	return out, nil
}

// ListCollections returns collection names in ascending order.
func (c *Connection) ListCollections(_ context.Context) ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	names := make([]string, 0, len(c.store.collections))
	for name := range c.store.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load trains the index over the current documents.
func (c *Connection) Load(_ context.Context, name string) error {
	if err := c.check(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	col, ok := c.store.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if col.loaded != nil {
		return nil
	}
	if col.index == nil {
		return fmt.Errorf("%w: collection %s has no index", domain.ErrSearch, name)
	}

	ix, err := ivf.New(*col.index, col.schema.Dimension())
	if err != nil {
		return err
	}
	ids := make([]int64, len(col.docs))
	vecs := make([][]float32, len(col.docs))
	for i, d := range col.docs {
		ids[i] = d.ID
		vecs[i] = d.Embedding
	}
	if err := ix.Build(ids, vecs); err != nil {
		return fmt.Errorf("%w: build index for %s: %w", domain.ErrSearch, name, err)
	}
	col.loaded = ix
	return nil
}

// Search queries a loaded collection.
func (c *Connection) Search(_ context.Context, name string, req driven.SearchRequest) ([]driven.Hit, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	col, ok := c.store.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if col.loaded == nil {
		return nil, fmt.Errorf("%w: collection %s is not loaded", domain.ErrSearch, name)
	}

	neighbours, err := col.loaded.Search(req.Vector, req.Limit, req.NProbe)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}

	byID := make(map[int64]*domain.Document, len(neighbours))
	for i := range col.docs {
		byID[col.docs[i].ID] = &col.docs[i]
	}

	hits := make([]driven.Hit, 0, len(neighbours))
	for _, n := range neighbours {
		hit := driven.Hit{ID: n.ID, Distance: n.Distance, Fields: make(map[string]string, len(req.OutputFields))}
		doc := byID[n.ID]
		for _, f := range req.OutputFields {
			switch f {
			case domain.FieldSourceName:
				hit.Fields[f] = doc.SourceName
			case domain.FieldText:
				hit.Fields[f] = doc.Text
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the connection. Closing twice is a no-op.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.open--
	return nil
}

func (c *Connection) check() error {
	if c.closed {
		return fmt.Errorf("%w: connection is closed", domain.ErrConnection)
	}
	return nil
}
