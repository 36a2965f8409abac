package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) Unset(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return ":memory:"
}

// mockReader implements driven.SourceReader over an in-memory directory.
type mockReader struct {
	dir     string
	files   map[string]domain.RawDocument
	dirs    []string
	readErr map[string]error
	listErr error
	reads   int
	mu      sync.Mutex
}

func newMockReader(dir string) *mockReader {
	return &mockReader{
		dir:     dir,
		files:   make(map[string]domain.RawDocument),
		readErr: make(map[string]error),
	}
}

func (m *mockReader) add(name, mimeType, content string) {
	m.files[name] = domain.RawDocument{
		Name:     name,
		Path:     m.dir + "/" + name,
		MIMEType: mimeType,
		Content:  []byte(content),
	}
}

func (m *mockReader) List(_ context.Context, dir string) ([]driven.SourceEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if dir != m.dir {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
	}

	entries := make([]driven.SourceEntry, 0, len(m.files)+len(m.dirs))
	for name := range m.files {
		entries = append(entries, driven.SourceEntry{Name: name, Path: dir + "/" + name})
	}
	for _, name := range m.dirs {
		entries = append(entries, driven.SourceEntry{Name: name, Path: dir + "/" + name, IsDir: true})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *mockReader) Read(_ context.Context, entry driven.SourceEntry) (*domain.RawDocument, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()

	if err := m.readErr[entry.Name]; err != nil {
		return nil, err
	}
	raw, ok := m.files[entry.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, entry.Name)
	}
	return &raw, nil
}

// mockExtractors implements driven.ExtractorRegistry for text/plain only.
type mockExtractors struct{}

func (mockExtractors) Extract(_ context.Context, raw *domain.RawDocument) (string, error) {
	if !strings.HasPrefix(raw.MIMEType, "text/plain") {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return string(raw.Content), nil
}

func (mockExtractors) Register(_ driven.Extractor) {}

func (mockExtractors) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// mockEmbedder implements driven.EmbeddingService with a letter histogram.
// Texts containing failOn return an error.
type mockEmbedder struct {
	failOn  string
	err     error
	calls   int
	texts   []string
	batches []int
	mu      sync.Mutex
}

const mockDims = 4

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		if m.err != nil {
			return nil, m.err
		}
		return nil, fmt.Errorf("%w: provider rejected input", domain.ErrEmbedding)
	}

	vec := make([]float32, mockDims)
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'f':
			vec[0]++
		case r >= 'g' && r <= 'm':
			vec[1]++
		case r >= 'n' && r <= 's':
			vec[2]++
		case r >= 't' && r <= 'z':
			vec[3]++
		}
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return mockDims }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedder) embedded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockEmbedder) batchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batches...)
}

// errConnRefused is returned by failingStore.
var errConnRefused = errors.New("dial tcp 127.0.0.1:19530: connection refused")

// failingStore implements driven.VectorStore and never connects.
type failingStore struct{}

func (failingStore) Connect(_ context.Context) (driven.Connection, error) {
	return nil, fmt.Errorf("%w: %w", domain.ErrConnection, errConnRefused)
}

// recordingStore wraps a store and records insert times on its connections.
// Operations named in fail return an error.
type recordingStore struct {
	inner driven.VectorStore
	fail  map[string]error

	mu      sync.Mutex
	inserts []time.Time
	docs    []domain.Document
}

func (s *recordingStore) Connect(ctx context.Context) (driven.Connection, error) {
	conn, err := s.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &recordingConn{Connection: conn, store: s}, nil
}

func (s *recordingStore) insertTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.inserts...)
}

func (s *recordingStore) insertedDocs() []domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Document(nil), s.docs...)
}

type recordingConn struct {
	driven.Connection
	store *recordingStore
}

func (c *recordingConn) failure(op string) error {
	return c.store.fail[op]
}

func (c *recordingConn) CreateCollection(ctx context.Context, schema domain.CollectionSchema) error {
	if err := c.failure("create"); err != nil {
		return err
	}
	return c.Connection.CreateCollection(ctx, schema)
}

func (c *recordingConn) CreateIndex(ctx context.Context, name string, spec domain.IndexSpec) error {
	if err := c.failure("index"); err != nil {
		return err
	}
	return c.Connection.CreateIndex(ctx, name, spec)
}

func (c *recordingConn) DropCollection(ctx context.Context, name string) error {
	if err := c.failure("drop"); err != nil {
		return err
	}
	return c.Connection.DropCollection(ctx, name)
}

func (c *recordingConn) Insert(ctx context.Context, name string, doc domain.Document) error {
	if err := c.failure("insert"); err != nil {
		return err
	}
	c.store.mu.Lock()
	c.store.inserts = append(c.store.inserts, time.Now())
	c.store.docs = append(c.store.docs, doc)
	c.store.mu.Unlock()
	return c.Connection.Insert(ctx, name, doc)
}

func (c *recordingConn) Search(ctx context.Context, name string, req driven.SearchRequest) ([]driven.Hit, error) {
	if err := c.failure("search"); err != nil {
		return nil, err
	}
	return c.Connection.Search(ctx, name, req)
}

// mockAIValidator implements driven.AIConfigValidator.
type mockAIValidator struct {
	err    error
	called bool
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	m.called = true
	return m.err
}
