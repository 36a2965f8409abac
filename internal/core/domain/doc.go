// Package domain defines the core business entities for docsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: One indexed unit (id, source name, normalised text, embedding)
//   - CollectionSchema: The fixed four-field layout of a collection
//   - IndexSpec: Index kind, distance metric and tuning parameters
//   - SearchResult: A projected nearest-neighbour hit
//   - RawDocument: Opaque bytes read from a source directory
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
