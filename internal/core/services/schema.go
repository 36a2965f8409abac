package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// SchemaManager creates collections with the document layout and declares
// their similarity index. Every call works on a connection owned by the caller.
type SchemaManager struct{}

// NewSchemaManager creates a new schema manager.
func NewSchemaManager() *SchemaManager {
	return &SchemaManager{}
}

// EnsureFresh drops the named collection if it exists.
func (m *SchemaManager) EnsureFresh(ctx context.Context, conn driven.Connection, name string) error {
	exists, err := conn.HasCollection(ctx, name)
	if err != nil {
		return schemaError("check collection "+name, err)
	}
	if !exists {
		return nil
	}

	logger.Info("Dropping existing collection %q", name)
	if err := conn.DropCollection(ctx, name); err != nil {
		return schemaError("drop collection "+name, err)
	}
	return nil
}

// CreateCollection creates an empty collection with the four-field layout.
func (m *SchemaManager) CreateCollection(
	ctx context.Context, conn driven.Connection, name string, dimension int,
) (*domain.Collection, error) {
	schema, err := domain.NewCollectionSchema(name, dimension)
	if err != nil {
		return nil, err
	}

	if err := conn.CreateCollection(ctx, schema); err != nil {
		return nil, schemaError("create collection "+name, err)
	}

	logger.Debug("Created collection %q (dimension %d)", name, dimension)
	return &domain.Collection{
		Name:      name,
		Dimension: dimension,
		Schema:    schema,
	}, nil
}

// BuildIndex declares the similarity index over the embedding field.
func (m *SchemaManager) BuildIndex(
	ctx context.Context, conn driven.Connection, collection *domain.Collection, spec domain.IndexSpec,
) error {
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return err
	}

	if err := conn.CreateIndex(ctx, collection.Name, spec); err != nil {
		return schemaError("create index on "+collection.Name, err)
	}

	logger.Debug("Index %s/%s nlist=%d declared on %q",
		spec.Kind, spec.Metric, spec.Params.NList, collection.Name)
	collection.Index = &spec
	return nil
}

// Prepare replaces the named collection with a new, empty, indexed one.
func (m *SchemaManager) Prepare(
	ctx context.Context, conn driven.Connection, name string, dimension int, spec domain.IndexSpec,
) (*domain.Collection, error) {
	if err := m.EnsureFresh(ctx, conn, name); err != nil {
		return nil, err
	}

	collection, err := m.CreateCollection(ctx, conn, name, dimension)
	if err != nil {
		return nil, err
	}

	if err := m.BuildIndex(ctx, conn, collection, spec); err != nil {
		return nil, err
	}
	return collection, nil
}

// schemaError tags store failures as schema errors unless they already
// carry a connection or schema classification.
func schemaError(action string, err error) error {
	if errors.Is(err, domain.ErrConnection) || errors.Is(err, domain.ErrSchema) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrSchema, action, err)
}
