package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// mockImportService implements driving.ImportService.
type mockImportService struct {
	report *domain.ImportReport
	err    error
	calls  []string
	onCall func(n int)
}

func (m *mockImportService) Import(_ context.Context, dataPath, collection string) (*domain.ImportReport, error) {
	m.calls = append(m.calls, dataPath+"|"+collection)
	if m.onCall != nil {
		m.onCall(len(m.calls))
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.ImportReport{RunID: "run-1", Collection: collection, Imported: 2, Duration: 15 * time.Millisecond}, nil
}

// mockSearchService implements driving.SearchService.
type mockSearchService struct {
	results    []domain.SearchResult
	err        error
	collection string
	query      string
	opts       domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context, collection, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.collection, m.query, m.opts = collection, query, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockCollectionService implements driving.CollectionService.
type mockCollectionService struct {
	collections []domain.Collection
	dropped     []string
	err         error
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Describe(_ context.Context, name string) (*domain.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.collections {
		if m.collections[i].Name == name {
			return &m.collections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
}

func (m *mockCollectionService) Drop(_ context.Context, name string) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.collections {
		if m.collections[i].Name == name {
			m.dropped = append(m.dropped, name)
			return nil
		}
	}
	return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
}

// mockSettingsService implements driving.SettingsService over a map.
type mockSettingsService struct {
	values      map[string]string
	setErr      error
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{values: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	if v, ok := m.values["store.backend"]; ok {
		s.Store.Backend = domain.StoreBackend(v)
	}
	s.Store.URI = m.values["store.uri"]
	s.Store.Token = m.values["store.token"]
	if v, ok := m.values["embedding.provider"]; ok {
		s.Embedding.Provider = domain.EmbeddingProvider(v)
	}
	s.Embedding.Model = m.values["embedding.model"]
	s.Embedding.APIKey = m.values["embedding.api_key"]
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Unset(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	delete(m.values, key)
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := []string{"store.backend", "store.uri", "store.token", "embedding.provider", "search.top_k"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	imports     *mockImportService
	search      *mockSearchService
	collections *mockCollectionService
	settings    *mockSettingsService
}

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: 0, SourceName: "greeting.txt", Text: "HelloWorld", Distance: 0},
		{ID: 3, SourceName: "weather.txt", Text: "Tomorrowbringsrain", Distance: 1.5},
	}
}

func testCollections() []domain.Collection {
	schema, _ := domain.NewCollectionSchema("docs", 8)
	spec := domain.DefaultIndexSpec()
	return []domain.Collection{
		{Name: "docs", Dimension: 8, Schema: schema, Index: &spec, Count: 3, Loaded: true},
		{Name: "empty", Dimension: 8, Count: 0},
	}
}

// setupTestServices installs mocks and restores the previous services on cleanup.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	prevImport, prevSearch, prevCollections := importService, searchService, collectionService
	prevSettings, prevErr := settingsService, startupErr

	ts := &testServices{
		imports:     &mockImportService{},
		search:      &mockSearchService{results: testResults()},
		collections: &mockCollectionService{collections: testCollections()},
		settings:    newMockSettingsService(),
	}
	SetServices(Services{Import: ts.imports, Search: ts.search, Collections: ts.collections})
	SetSettingsService(ts.settings)
	SetStartupError(nil)

	t.Cleanup(func() {
		importService, searchService, collectionService = prevImport, prevSearch, prevCollections
		settingsService, startupErr = prevSettings, prevErr
	})
	return ts
}

// clearServices removes every service for the duration of the test.
func clearServices(t *testing.T) {
	t.Helper()
	setupTestServices(t)
	SetServices(Services{})
	SetSettingsService(nil)
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
