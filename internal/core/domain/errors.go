package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown store, provider or extractor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrConnection indicates the vector store is unreachable or rejected the credentials.
	// Fatal to the current operation.
	ErrConnection = errors.New("connection failed")

	// ErrSchema indicates an invalid collection definition or index specification.
	// Aborts an import before any insert.
	ErrSchema = errors.New("schema error")

	// ErrExtraction indicates a source entry could not be read or decoded.
	// Recoverable: the entry is skipped and the import continues.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding provider could not vectorise its input.
	// Aborts the whole import.
	ErrEmbedding = errors.New("embedding failed")

	// ErrSearch indicates a search could not run (collection missing, index not built).
	ErrSearch = errors.New("search failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
