package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// VectorStore opens connections to a collection store.
// Connections are short-lived: one per operation, closed on every exit path.
type VectorStore interface {
	// Connect establishes a connection. Unreachable stores and rejected
	// credentials return an error wrapping domain.ErrConnection.
	Connect(ctx context.Context) (Connection, error)
}

// StoreCapabilities describes optional behaviour of a store.
type StoreCapabilities struct {
	// SynchronousInsert is true when Insert returns only after the write
	// has been acknowledged. Importers skip their throttle for such stores.
	SynchronousInsert bool
}

// Connection is an open handle to a collection store.
type Connection interface {
	// Capabilities reports optional behaviour.
	Capabilities() StoreCapabilities

	// HasCollection reports whether a collection exists.
	HasCollection(ctx context.Context, name string) (bool, error)

	// CreateCollection creates an empty collection with the given layout.
	// Returns domain.ErrAlreadyExists if the name is taken.
	CreateCollection(ctx context.Context, schema domain.CollectionSchema) error

	// DropCollection destroys a collection and all its documents.
	// Dropping a missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// CreateIndex declares the similarity index of a collection.
	CreateIndex(ctx context.Context, collection string, spec domain.IndexSpec) error

	// Insert appends one document. The id must not exist yet.
	Insert(ctx context.Context, collection string, doc domain.Document) error

	// Describe returns collection metadata. Returns domain.ErrNotFound if missing.
	Describe(ctx context.Context, name string) (*domain.Collection, error)

	// ListCollections returns all collection names in ascending order.
	ListCollections(ctx context.Context) ([]string, error)

	// Load makes index and data resident for search.
	Load(ctx context.Context, collection string) error

	// Search runs an approximate nearest-neighbour query against a loaded
	// collection. Hits are ordered by ascending distance, ties by ascending id.
	Search(ctx context.Context, collection string, req SearchRequest) ([]Hit, error)

	// Close releases the connection.
	Close() error
}

// SearchRequest is a nearest-neighbour query.
type SearchRequest struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of hits.
	Limit int

	// NProbe overrides the partitions scanned; zero uses the index setting.
	NProbe int

	// OutputFields lists the scalar fields to fetch for each hit.
	OutputFields []string
}

// Hit is a single nearest-neighbour match.
type Hit struct {
	// ID is the document id.
	ID int64

	// Distance is the metric distance to the query; smaller is nearer.
	Distance float64

	// Fields holds the requested output fields.
	Fields map[string]string
}
