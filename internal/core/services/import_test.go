package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

const testDir = "/data/docs"

func newTestImportService(store *memory.VectorStore, reader *mockReader, embedder *mockEmbedder) *ImportService {
	return NewImportService(store, reader, mockExtractors{}, embedder, ImportOptions{
		Index: domain.IndexSpec{Kind: domain.IndexFlat},
	})
}

func describe(t *testing.T, store *memory.VectorStore, name string) *domain.Collection {
	t.Helper()
	conn, err := store.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	c, err := conn.Describe(context.Background(), name)
	require.NoError(t, err)
	return c
}

func TestNewImportService_Defaults(t *testing.T) {
	svc := NewImportService(memory.NewVectorStore(), newMockReader(testDir), mockExtractors{}, &mockEmbedder{}, ImportOptions{})

	require.NotNil(t, svc)
	assert.Equal(t, 1, svc.opts.Workers)
	assert.Equal(t, domain.DefaultIndexSpec(), svc.opts.Index)
}

func TestImportService_Import_InvalidInput(t *testing.T) {
	svc := newTestImportService(memory.NewVectorStore(), newMockReader(testDir), &mockEmbedder{})

	_, err := svc.Import(context.Background(), "", "docs")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Import(context.Background(), testDir, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportService_Import_SkipsUnextractableEntries(t *testing.T) {
	store := memory.NewVectorStore()
	reader := newMockReader(testDir)
	reader.add("a.md", "text/plain; charset=utf-8", "Hello, World!")
	reader.add("b.bin", "application/octet-stream", "\x00\x01\x02")
	reader.add("c.txt", "text/plain; charset=utf-8", "second file")
	reader.dirs = []string{"nested"}
	svc := newTestImportService(store, reader, &mockEmbedder{})

	report, err := svc.Import(context.Background(), testDir, "docs")

	require.NoError(t, err)
	assert.Equal(t, "docs", report.Collection)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "b.bin", report.Skipped[0].Name)
	assert.Contains(t, report.Skipped[0].Reason, "application/octet-stream")
	assert.Equal(t, "nested", report.Skipped[1].Name)

	c := describe(t, store, "docs")
	assert.Equal(t, int64(2), c.Count)
	assert.Equal(t, mockDims, c.Dimension)
	require.NotNil(t, c.Index)
	assert.Equal(t, domain.IndexFlat, c.Index.Kind)

	// Ids are gap-free and follow enumeration order; text is normalised.
	search := NewSearchService(store, &mockEmbedder{}, domain.SearchOptions{})
	results, err := search.Search(context.Background(), "docs", "Hello, World!", domain.SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	byID := map[int64]domain.SearchResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, "a.md", byID[0].SourceName)
	assert.Equal(t, "HelloWorld", byID[0].Text)
	assert.Equal(t, "c.txt", byID[1].SourceName)
	assert.Equal(t, "secondfile", byID[1].Text)
}

func TestImportService_Import_ExtractionErrorFromReader(t *testing.T) {
	store := memory.NewVectorStore()
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "beta")
	reader.readErr["a.txt"] = fmt.Errorf("%w: permission denied", domain.ErrExtraction)
	svc := newTestImportService(store, reader, &mockEmbedder{})

	report, err := svc.Import(context.Background(), testDir, "docs")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "a.txt", report.Skipped[0].Name)
}

func TestImportService_Import_ReplacesExistingCollection(t *testing.T) {
	store := memory.NewVectorStore()
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "beta")
	svc := newTestImportService(store, reader, &mockEmbedder{})

	_, err := svc.Import(context.Background(), testDir, "docs")
	require.NoError(t, err)

	reader.add("c.txt", "text/plain", "gamma")
	report, err := svc.Import(context.Background(), testDir, "docs")

	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, int64(3), describe(t, store, "docs").Count)
}

func TestImportService_Import_EmptyDirectory(t *testing.T) {
	store := memory.NewVectorStore()
	svc := newTestImportService(store, newMockReader(testDir), &mockEmbedder{})

	report, err := svc.Import(context.Background(), testDir, "empty")

	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Zero(t, describe(t, store, "empty").Count)
}

func TestImportService_Import_MissingDirectoryKeepsCollection(t *testing.T) {
	store := memory.NewVectorStore()
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	svc := newTestImportService(store, reader, &mockEmbedder{})

	_, err := svc.Import(context.Background(), testDir, "docs")
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), "/does/not/exist", "docs")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(1), describe(t, store, "docs").Count)
}

func TestImportService_Import_EmbeddingErrorAborts(t *testing.T) {
	inner := memory.NewVectorStore()
	store := &recordingStore{inner: inner}
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "poison")
	reader.add("c.txt", "text/plain", "gamma")
	embedder := &mockEmbedder{failOn: "poison"}
	svc := NewImportService(store, reader, mockExtractors{}, embedder, ImportOptions{
		Index: domain.IndexSpec{Kind: domain.IndexFlat},
	})

	_, err := svc.Import(context.Background(), testDir, "docs")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "b.txt")
	docs := store.insertedDocs()
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].SourceName)
	assert.Zero(t, inner.OpenConnections())
}

func TestImportService_Import_UntaggedEmbeddingErrorIsTagged(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	embedder := &mockEmbedder{failOn: "alpha", err: errors.New("model not loaded")}
	svc := newTestImportService(memory.NewVectorStore(), reader, embedder)

	_, err := svc.Import(context.Background(), testDir, "docs")

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestImportService_Import_TextEmptyAfterNormalisation(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("punct.txt", "text/plain", "!!! ... ???")
	svc := newTestImportService(memory.NewVectorStore(), reader, &mockEmbedder{})

	_, err := svc.Import(context.Background(), testDir, "docs")

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestImportService_Import_ConnectionError(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	svc := NewImportService(failingStore{}, reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{})

	_, err := svc.Import(context.Background(), testDir, "docs")

	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestImportService_Import_SchemaErrorBeforeInsert(t *testing.T) {
	inner := memory.NewVectorStore()
	store := &recordingStore{inner: inner, fail: map[string]error{"index": errors.New("index type not supported")}}
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	embedder := &mockEmbedder{}
	svc := NewImportService(store, reader, mockExtractors{}, embedder, ImportOptions{})

	_, err := svc.Import(context.Background(), testDir, "docs")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.Empty(t, store.insertedDocs())
	assert.Zero(t, embedder.callCount())
	assert.Zero(t, inner.OpenConnections())
}

func TestImportService_Import_InvalidIndexSpec(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	svc := NewImportService(memory.NewVectorStore(), reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{
		Index: domain.IndexSpec{Metric: "HAMMING"},
	})

	_, err := svc.Import(context.Background(), testDir, "docs")

	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestImportService_Import_InsertError(t *testing.T) {
	inner := memory.NewVectorStore()
	store := &recordingStore{inner: inner, fail: map[string]error{
		"insert": fmt.Errorf("%w: broken pipe", domain.ErrConnection),
	}}
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	svc := NewImportService(store, reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{})

	_, err := svc.Import(context.Background(), testDir, "docs")

	assert.ErrorIs(t, err, domain.ErrConnection)
	assert.Zero(t, inner.OpenConnections())
}

func TestImportService_Import_ParallelWorkersKeepOrder(t *testing.T) {
	store := &recordingStore{inner: memory.NewVectorStore()}
	reader := newMockReader(testDir)
	names := []string{"a.txt", "b.txt", "c.bin", "d.txt", "e.txt", "f.txt", "g.txt"}
	for _, n := range names {
		mime := "text/plain"
		if n == "c.bin" {
			mime = "application/octet-stream"
		}
		reader.add(n, mime, "content of "+n)
	}
	svc := NewImportService(store, reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{
		Index:   domain.IndexSpec{Kind: domain.IndexFlat},
		Workers: 3,
	})

	report, err := svc.Import(context.Background(), testDir, "docs")

	require.NoError(t, err)
	assert.Equal(t, 6, report.Imported)
	docs := store.insertedDocs()
	require.Len(t, docs, 6)
	want := []string{"a.txt", "b.txt", "d.txt", "e.txt", "f.txt", "g.txt"}
	for i, d := range docs {
		assert.Equal(t, int64(i), d.ID)
		assert.Equal(t, want[i], d.SourceName)
	}
}

func TestImportService_Import_EmbedsOneBatchPerWindow(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    []int
	}{
		{"sequential", 1, []int{1, 1, 1, 1}},
		{"windows of two", 2, []int{2, 1, 1}},
		{"single window", 8, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newMockReader(testDir)
			reader.add("a.txt", "text/plain", "alpha")
			reader.add("b.txt", "text/plain", "beta")
			reader.add("c.bin", "application/octet-stream", "\x00\x01")
			reader.add("d.txt", "text/plain", "delta")
			reader.add("e.txt", "text/plain", "epsilon")
			embedder := &mockEmbedder{}
			svc := NewImportService(memory.NewVectorStore(), reader, mockExtractors{}, embedder, ImportOptions{
				Index:   domain.IndexSpec{Kind: domain.IndexFlat},
				Workers: tt.workers,
			})

			report, err := svc.Import(context.Background(), testDir, "docs")

			require.NoError(t, err)
			assert.Equal(t, 4, report.Imported)
			assert.Equal(t, tt.want, embedder.batchSizes())
		})
	}
}

func TestImportService_Import_ThrottlesAsyncStore(t *testing.T) {
	const interval = 40 * time.Millisecond
	store := &recordingStore{inner: memory.NewVectorStore(memory.WithAsyncInsert())}
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "beta")
	reader.add("c.txt", "text/plain", "gamma")
	svc := NewImportService(store, reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{
		Index:          domain.IndexSpec{Kind: domain.IndexFlat},
		InsertInterval: interval,
	})

	_, err := svc.Import(context.Background(), testDir, "docs")

	require.NoError(t, err)
	times := store.insertTimes()
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		// Allow for timer granularity.
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-5*time.Millisecond)
	}
}

func TestImportService_Import_NoThrottleForSyncStore(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "beta")
	svc := NewImportService(memory.NewVectorStore(), reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{
		Index:          domain.IndexSpec{Kind: domain.IndexFlat},
		InsertInterval: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := svc.Import(ctx, testDir, "docs")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
}

func TestImportService_Import_ThrottleHonoursCancellation(t *testing.T) {
	reader := newMockReader(testDir)
	reader.add("a.txt", "text/plain", "alpha")
	reader.add("b.txt", "text/plain", "beta")
	store := memory.NewVectorStore(memory.WithAsyncInsert())
	svc := NewImportService(store, reader, mockExtractors{}, &mockEmbedder{}, ImportOptions{
		Index:          domain.IndexSpec{Kind: domain.IndexFlat},
		InsertInterval: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Import(ctx, testDir, "docs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttle")
	assert.Zero(t, store.OpenConnections())
}
