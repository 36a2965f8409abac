package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SourceEntry is one entry of a source directory.
type SourceEntry struct {
	// Name is the entry name.
	Name string

	// Path is the full path.
	Path string

	// IsDir is true for subdirectories, which are never descended into.
	IsDir bool
}

// SourceReader enumerates and reads entries of a source directory.
type SourceReader interface {
	// List returns the direct entries of dir in ascending name order.
	List(ctx context.Context, dir string) ([]SourceEntry, error)

	// Read loads an entry's bytes and detects its MIME type.
	// Unreadable entries return an error wrapping domain.ErrExtraction.
	Read(ctx context.Context, entry SourceEntry) (*domain.RawDocument, error)
}
