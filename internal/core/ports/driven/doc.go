// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore / Connection: Collection storage and nearest-neighbour search
//   - EmbeddingService: Turns normalised text into fixed-length vectors
//   - SourceReader: Enumerates and reads entries of a source directory
//   - Extractor / ExtractorRegistry: Format-specific text extraction
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
