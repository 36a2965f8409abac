package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix is the prefix of environment variables overriding the config file.
const EnvPrefix = "DOCSEARCH"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreBackend    = "store.backend"
	keyStoreURI        = "store.uri"
	keyStoreToken      = "store.token"
	keyStoreDataDir    = "store.data_dir"
	keyStoreWaitForAck = "store.wait_for_ack"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyIndexKind       = "index.kind"
	keyIndexMetric     = "index.metric"
	keyIndexNList      = "index.nlist"
	keyIndexNProbe     = "index.nprobe"
	keyInsertInterval  = "ingest.insert_interval"
	keyIngestWorkers   = "ingest.workers"
	keySearchTopK      = "search.top_k"
)

// allKeys lists every settable key in display order.
var allKeys = []string{
	keyStoreBackend, keyStoreURI, keyStoreToken, keyStoreDataDir, keyStoreWaitForAck,
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedDims,
	keyIndexKind, keyIndexMetric, keyIndexNList, keyIndexNProbe,
	keyInsertInterval, keyIngestWorkers,
	keySearchTopK,
}

// secretKeys are masked when displayed.
var secretKeys = map[string]bool{
	keyStoreToken:  true,
	keyEmbedAPIKey: true,
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// envOverrides holds environment values that take precedence over the file.
// Empty strings and zero numbers leave the file value in place.
type envOverrides struct {
	StoreBackend      string `envconfig:"STORE_BACKEND"`
	StoreURI          string `envconfig:"STORE_URI"`
	StoreToken        string `envconfig:"STORE_TOKEN"`
	StoreDataDir      string `envconfig:"STORE_DATA_DIR"`
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingBaseURL  string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey   string `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingDims     int    `envconfig:"EMBEDDING_DIMENSIONS"`
	IngestWorkers     int    `envconfig:"INGEST_WORKERS"`
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.fromFile()

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", domain.ErrInvalidInput, err)
	}
	applyOverrides(settings, env)

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyStoreBackend:    settings.Store.Backend.String(),
		keyStoreURI:        settings.Store.URI,
		keyStoreDataDir:    settings.Store.DataDir,
		keyStoreWaitForAck: settings.Store.WaitForAck,
		keyEmbedProvider:   settings.Embedding.Provider.String(),
		keyEmbedModel:      settings.Embedding.Model,
		keyEmbedBaseURL:    settings.Embedding.BaseURL,
		keyEmbedDims:       settings.Embedding.Dimensions,
		keyIndexKind:       settings.Index.Kind.String(),
		keyIndexMetric:     settings.Index.Metric.String(),
		keyIndexNList:      settings.Index.NList,
		keyIndexNProbe:     settings.Index.NProbe,
		keyInsertInterval:  settings.Ingest.InsertInterval.String(),
		keyIngestWorkers:   settings.Ingest.Workers,
		keySearchTopK:      settings.Search.TopK,
	}
	// Secrets are only written when present so an empty form never erases them.
	if settings.Store.Token != "" {
		values[keyStoreToken] = settings.Store.Token
	}
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}

	for _, key := range allKeys {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := s.configStore.Set(key, v); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set parses value for key, checks the result and persists it.
//
//nolint:gocyclo // One case per key
func (s *SettingsService) Set(key, value string) error {
	settings := s.fromFile()
	var stored any = value

	switch key {
	case keyStoreBackend:
		settings.Store.Backend = domain.StoreBackend(value)
	case keyStoreURI:
		settings.Store.URI = value
	case keyStoreToken:
		settings.Store.Token = value
	case keyStoreDataDir:
		settings.Store.DataDir = value
	case keyStoreWaitForAck:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		settings.Store.WaitForAck = b
		stored = b
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.EmbeddingProvider(value)
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = value
	case keyEmbedDims, keyIndexNList, keyIndexNProbe, keyIngestWorkers, keySearchTopK:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		setInt(settings, key, n)
		stored = n
	case keyIndexKind:
		settings.Index.Kind = domain.IndexKind(value)
	case keyIndexMetric:
		settings.Index.Metric = domain.Metric(value)
	case keyInsertInterval:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		settings.Ingest.InsertInterval = d
		stored = d.String()
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	return s.configStore.Set(key, stored)
}

// Unset removes a stored key so its default applies again. The removal is
// rolled back when the remaining settings no longer validate.
func (s *SettingsService) Unset(key string) error {
	if !slices.Contains(allKeys, key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	prev, ok := s.configStore.Get(key)
	if !ok {
		return nil
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	if err := s.fromFile().Validate(); err != nil {
		if restoreErr := s.configStore.Set(key, prev); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return nil
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(allKeys))
	copy(out, allKeys)
	return out
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// fromFile reads settings from the config store, falling back to defaults.
func (s *SettingsService) fromFile() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Store: domain.StoreSettings{
			Backend:    domain.StoreBackend(s.getString(keyStoreBackend, d.Store.Backend.String())),
			URI:        s.configStore.GetString(keyStoreURI),
			Token:      s.configStore.GetString(keyStoreToken),
			DataDir:    s.configStore.GetString(keyStoreDataDir),
			WaitForAck: s.getBool(keyStoreWaitForAck, d.Store.WaitForAck),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.EmbeddingProvider(s.getString(keyEmbedProvider, d.Embedding.Provider.String())),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - adapters know their endpoint
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, d.Embedding.Dimensions),
		},
		Index: domain.IndexSettings{
			Kind:   domain.IndexKind(s.getString(keyIndexKind, d.Index.Kind.String())),
			Metric: domain.Metric(s.getString(keyIndexMetric, d.Index.Metric.String())),
			NList:  s.getInt(keyIndexNList, d.Index.NList),
			NProbe: s.getInt(keyIndexNProbe, d.Index.NProbe),
		},
		Ingest: domain.IngestSettings{
			InsertInterval: s.getDuration(keyInsertInterval, d.Ingest.InsertInterval),
			Workers:        s.getInt(keyIngestWorkers, d.Ingest.Workers),
		},
		Search: domain.SearchSettings{
			TopK: s.getInt(keySearchTopK, d.Search.TopK),
		},
	}
}

func applyOverrides(settings *domain.AppSettings, env envOverrides) {
	if env.StoreBackend != "" {
		settings.Store.Backend = domain.StoreBackend(env.StoreBackend)
	}
	if env.StoreURI != "" {
		settings.Store.URI = env.StoreURI
	}
	if env.StoreToken != "" {
		settings.Store.Token = env.StoreToken
	}
	if env.StoreDataDir != "" {
		settings.Store.DataDir = env.StoreDataDir
	}
	if env.EmbeddingProvider != "" {
		settings.Embedding.Provider = domain.EmbeddingProvider(env.EmbeddingProvider)
	}
	if env.EmbeddingModel != "" {
		settings.Embedding.Model = env.EmbeddingModel
	}
	if env.EmbeddingBaseURL != "" {
		settings.Embedding.BaseURL = env.EmbeddingBaseURL
	}
	if env.EmbeddingAPIKey != "" {
		settings.Embedding.APIKey = env.EmbeddingAPIKey
	}
	if env.EmbeddingDims > 0 {
		settings.Embedding.Dimensions = env.EmbeddingDims
	}
	if env.IngestWorkers > 0 {
		settings.Ingest.Workers = env.IngestWorkers
	}
}

func setInt(settings *domain.AppSettings, key string, n int) {
	switch key {
	case keyEmbedDims:
		settings.Embedding.Dimensions = n
	case keyIndexNList:
		settings.Index.NList = n
	case keyIndexNProbe:
		settings.Index.NProbe = n
	case keyIngestWorkers:
		settings.Ingest.Workers = n
	case keySearchTopK:
		settings.Search.TopK = n
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
