package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the service that turns text into vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHashing is the built-in offline feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHashing, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if this provider runs on the local machine.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderHashing || p == EmbeddingProviderOllama
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHashing:
		return "Hashing (built-in, offline)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite keeps collections in a local SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps collections in process memory.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendQdrant talks to a remote Qdrant cluster by URI and API key.
	StoreBackendQdrant StoreBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMemory, StoreBackendQdrant:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the backend is reached over the network.
func (b StoreBackend) IsRemote() bool {
	return b == StoreBackendQdrant
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendSQLite:
		return "SQLite (local file)"
	case StoreBackendMemory:
		return "Memory (ephemeral)"
	case StoreBackendQdrant:
		return "Qdrant (remote cluster)"
	default:
		return unknownDescription
	}
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// URI is the cluster endpoint (remote backends).
	URI string

	// Token authenticates against the cluster (remote backends).
	Token string

	// DataDir is where local backends keep their files.
	// Empty means ~/.docsearch/data.
	DataDir string

	// WaitForAck asks remote backends to confirm each write synchronously.
	// When false, the import throttle paces inserts instead.
	WaitForAck bool
}

// IsConfigured returns true if the store settings are usable.
func (s StoreSettings) IsConfigured() bool {
	if !s.Backend.IsValid() {
		return false
	}
	if s.Backend.IsRemote() && s.URI == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size.
	// Zero uses the model's native size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds the index declared on new collections.
type IndexSettings struct {
	Kind   IndexKind
	Metric Metric
	NList  int
	NProbe int
}

// Spec converts the settings into an index specification.
func (s IndexSettings) Spec() IndexSpec {
	return IndexSpec{
		Field:  FieldEmbedding,
		Kind:   s.Kind,
		Metric: s.Metric,
		Params: IndexParams{NList: s.NList, NProbe: s.NProbe},
	}.WithDefaults()
}

// DefaultInsertInterval is the pause between inserts into stores that do not
// acknowledge writes synchronously.
const DefaultInsertInterval = 2 * time.Second

// IngestSettings holds import pipeline configuration.
type IngestSettings struct {
	// InsertInterval is the minimum spacing between unacknowledged inserts.
	InsertInterval time.Duration

	// Workers bounds parallel extraction and embedding. Ids stay ordered.
	Workers int
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// TopK is the default number of results.
	TopK int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Store     StoreSettings
	Embedding EmbeddingSettings
	Index     IndexSettings
	Ingest    IngestSettings
	Search    SearchSettings
}

// DefaultAppSettings returns settings that work offline out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
		Embedding: EmbeddingSettings{
			Provider: EmbeddingProviderHashing,
		},
		Index: IndexSettings{
			Kind:   IndexIVFFlat,
			Metric: MetricL2,
			NList:  DefaultNList,
			NProbe: DefaultNProbe,
		},
		Ingest: IngestSettings{
			InsertInterval: DefaultInsertInterval,
			Workers:        1,
		},
		Search: SearchSettings{
			TopK: DefaultTopK,
		},
	}
}

// Validate checks the settings for values no component can work with.
func (s AppSettings) Validate() error {
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidInput, s.Store.Backend)
	}
	if s.Store.Backend.IsRemote() && s.Store.URI == "" {
		return fmt.Errorf("%w: store.uri is required for %s", ErrInvalidInput, s.Store.Backend)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding.dimensions must not be negative", ErrInvalidInput)
	}
	if err := s.Index.Spec().Validate(); err != nil {
		return err
	}
	if s.Ingest.InsertInterval < 0 {
		return fmt.Errorf("%w: ingest.insert_interval must not be negative", ErrInvalidInput)
	}
	if s.Ingest.Workers < 0 {
		return fmt.Errorf("%w: ingest.workers must not be negative", ErrInvalidInput)
	}
	if s.Search.TopK < 0 {
		return fmt.Errorf("%w: search.top_k must not be negative", ErrInvalidInput)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderHashing,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// AllStoreBackends returns every store backend.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendSQLite,
		StoreBackendMemory,
		StoreBackendQdrant,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderHashing: "char-ngram-1-3",
		EmbeddingProviderOllama:  "nomic-embed-text",
		EmbeddingProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
