package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// fakeCollection is the state of one collection in fakeQdrant.
type fakeCollection struct {
	size     int
	distance string
	points   map[int64]fakePoint
}

type fakePoint struct {
	vector  []float64
	payload map[string]any
}

// fakeQdrant implements the subset of the Qdrant REST API the store uses.
type fakeQdrant struct {
	mu          sync.Mutex
	apiKey      string
	collections map[string]*fakeCollection
	lastWait    string
	lastSearch  map[string]any
	paths       []string
}

func newFakeQdrant(apiKey string) *fakeQdrant {
	return &fakeQdrant{apiKey: apiKey, collections: make(map[string]*fakeCollection)}
}

func (f *fakeQdrant) reply(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 300 {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": map[string]any{"error": "Not found"}})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": result})
}

//nolint:gocyclo // routing table
func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.apiKey != "" && r.Header.Get("api-key") != f.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.paths = append(f.paths, r.URL.EscapedPath())
	parts := strings.Split(strings.Trim(r.URL.EscapedPath(), "/"), "/")
	for i, p := range parts {
		if unescaped, err := url.PathUnescape(p); err == nil {
			parts[i] = unescaped
		}
	}
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		names := make([]map[string]string, 0)
		for name := range f.collections {
			names = append(names, map[string]string{"name": name})
		}
		f.reply(w, http.StatusOK, map[string]any{"collections": names})

	case len(parts) == 2 && r.Method == http.MethodGet:
		c, ok := f.collections[parts[1]]
		if !ok {
			f.reply(w, http.StatusNotFound, nil)
			return
		}
		f.reply(w, http.StatusOK, map[string]any{
			"status":       "green",
			"points_count": len(c.points),
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{
				"size": c.size, "distance": c.distance,
			}}},
		})

	case len(parts) == 2 && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.collections[parts[1]] = &fakeCollection{
			size: body.Vectors.Size, distance: body.Vectors.Distance, points: make(map[int64]fakePoint),
		}
		f.reply(w, http.StatusOK, true)

	case len(parts) == 2 && r.Method == http.MethodDelete:
		if _, ok := f.collections[parts[1]]; !ok {
			f.reply(w, http.StatusNotFound, nil)
			return
		}
		delete(f.collections, parts[1])
		f.reply(w, http.StatusOK, true)

	case len(parts) == 3 && r.Method == http.MethodPut:
		c := f.collections[parts[1]]
		f.lastWait = r.URL.Query().Get("wait")
		var body struct {
			Points []struct {
				ID      int64          `json:"id"`
				Vector  []float64      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			c.points[p.ID] = fakePoint{vector: p.Vector, payload: p.Payload}
		}
		f.reply(w, http.StatusOK, map[string]any{"status": "completed"})

	case len(parts) == 4 && r.Method == http.MethodPost:
		c := f.collections[parts[1]]
		var body struct {
			Vector []float64 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		raw := map[string]any{}
		dec := json.NewDecoder(r.Body)
		_ = dec.Decode(&raw)
		f.lastSearch = raw
		b, _ := json.Marshal(raw)
		_ = json.Unmarshal(b, &body)

		type scored struct {
			ID      int64          `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		out := make([]scored, 0, len(c.points))
		for id, p := range c.points {
			var d float64
			for i := range p.vector {
				diff := p.vector[i] - body.Vector[i]
				d += diff * diff
			}
			out = append(out, scored{ID: id, Score: math.Sqrt(d), Payload: p.payload})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
		if len(out) > body.Limit {
			out = out[:body.Limit]
		}
		f.reply(w, http.StatusOK, out)

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeQdrant) distanceOf(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections[name].distance
}

func (f *fakeQdrant) waitParam() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWait
}

func (f *fakeQdrant) requestPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeQdrant) searchParams() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSearch["params"]
}

func setup(t *testing.T, wait bool) (*fakeQdrant, driven.Connection) {
	t.Helper()
	fake := newFakeQdrant("secret")
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewStore(Config{URL: server.URL + "/", APIKey: "secret", WaitForAck: wait})
	require.NoError(t, err)
	conn, err := store.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return fake, conn
}

func TestNewStore_RequiresURL(t *testing.T) {
	_, err := NewStore(Config{})
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestConnect_RejectedCredentials(t *testing.T) {
	server := httptest.NewServer(newFakeQdrant("secret"))
	defer server.Close()

	store, err := NewStore(Config{URL: server.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = store.Connect(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestConnect_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store, err := NewStore(Config{URL: url})
	require.NoError(t, err)

	_, err = store.Connect(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestConnection_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fake, conn := setup(t, true)

	assert.True(t, conn.Capabilities().SynchronousInsert)

	exists, err := conn.HasCollection(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)

	schema, err := domain.NewCollectionSchema("docs", 2)
	require.NoError(t, err)
	require.NoError(t, conn.CreateCollection(ctx, schema))
	assert.ErrorIs(t, conn.CreateCollection(ctx, schema), domain.ErrAlreadyExists)

	require.NoError(t, conn.CreateIndex(ctx, "docs", domain.IndexSpec{Metric: domain.MetricCosine}))
	assert.Equal(t, distanceCosine, fake.distanceOf("docs"))
	require.NoError(t, conn.CreateIndex(ctx, "docs", domain.DefaultIndexSpec()))
	assert.Equal(t, distanceEuclid, fake.distanceOf("docs"))

	require.NoError(t, conn.Insert(ctx, "docs", domain.Document{ID: 0, SourceName: "a.md", Text: "alpha", Embedding: []float32{0, 0}}))
	require.NoError(t, conn.Insert(ctx, "docs", domain.Document{ID: 1, SourceName: "b.md", Text: "beta", Embedding: []float32{3, 4}}))
	assert.Equal(t, "true", fake.waitParam())
	assert.ErrorIs(t, conn.Insert(ctx, "docs", domain.Document{ID: 2, Embedding: []float32{1}}), domain.ErrEmbedding)

	err = conn.CreateIndex(ctx, "docs", domain.IndexSpec{Metric: domain.MetricIP})
	assert.ErrorIs(t, err, domain.ErrSchema)

	info, err := conn.Describe(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Count)
	assert.Equal(t, 2, info.Dimension)
	assert.Equal(t, domain.IndexHNSW, info.Index.Kind)
	assert.Equal(t, domain.MetricL2, info.Index.Metric)
	assert.True(t, info.Loaded)

	require.NoError(t, conn.Load(ctx, "docs"))
	hits, err := conn.Search(ctx, "docs", driven.SearchRequest{
		Vector:       []float32{3, 3},
		Limit:        1,
		NProbe:       10,
		OutputFields: []string{domain.FieldSourceName, domain.FieldText},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.InDelta(t, 1, hits[0].Distance, 1e-9)
	assert.Equal(t, "b.md", hits[0].Fields[domain.FieldSourceName])
	assert.Equal(t, "beta", hits[0].Fields[domain.FieldText])
	assert.Equal(t, map[string]any{"hnsw_ef": float64(10)}, fake.searchParams())

	names, err := conn.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	require.NoError(t, conn.DropCollection(ctx, "docs"))
	require.NoError(t, conn.DropCollection(ctx, "docs"))
	_, err = conn.Describe(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, conn.Load(ctx, "docs"), domain.ErrNotFound)
}

func TestConnection_EscapesCollectionNames(t *testing.T) {
	tests := []struct {
		name    string
		escaped string
	}{
		{"my docs", "my%20docs"},
		{"q1/reports", "q1%2Freports"},
		{"what?", "what%3F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fake, conn := setup(t, true)

			schema, err := domain.NewCollectionSchema(tt.name, 2)
			require.NoError(t, err)
			require.NoError(t, conn.CreateCollection(ctx, schema))
			require.NoError(t, conn.Insert(ctx, tt.name, domain.Document{ID: 0, SourceName: "a.md", Text: "alpha", Embedding: []float32{1, 1}}))

			info, err := conn.Describe(ctx, tt.name)
			require.NoError(t, err)
			assert.Equal(t, int64(1), info.Count)

			hits, err := conn.Search(ctx, tt.name, driven.SearchRequest{Vector: []float32{1, 1}, Limit: 1})
			require.NoError(t, err)
			require.Len(t, hits, 1)

			require.NoError(t, conn.DropCollection(ctx, tt.name))

			for _, p := range fake.requestPaths() {
				if p == "/collections" {
					continue
				}
				assert.True(t, strings.HasPrefix(p, "/collections/"+tt.escaped), "unescaped path %s", p)
			}
		})
	}
}

func TestConnection_AsyncInserts(t *testing.T) {
	ctx := context.Background()
	fake, conn := setup(t, false)

	assert.False(t, conn.Capabilities().SynchronousInsert)

	schema, _ := domain.NewCollectionSchema("docs", 1)
	require.NoError(t, conn.CreateCollection(ctx, schema))
	require.NoError(t, conn.Insert(ctx, "docs", domain.Document{ID: 0, Embedding: []float32{1}}))
	assert.Equal(t, "false", fake.waitParam())
}

func TestConnection_Closed(t *testing.T) {
	_, conn := setup(t, true)
	require.NoError(t, conn.Close())

	_, err := conn.ListCollections(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestDistanceConversions(t *testing.T) {
	for _, m := range []domain.Metric{domain.MetricL2, domain.MetricIP, domain.MetricCosine} {
		d, err := toDistance(m)
		require.NoError(t, err)
		back, err := fromDistance(d)
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}

	_, err := toDistance("HAMMING")
	assert.ErrorIs(t, err, domain.ErrSchema)
	_, err = fromDistance("Manhattan")
	assert.ErrorIs(t, err, domain.ErrSchema)

	assert.InDelta(t, 4, toDistanceValue(domain.MetricL2, 2), 1e-9)
	assert.InDelta(t, -0.5, toDistanceValue(domain.MetricIP, 0.5), 1e-9)
	assert.InDelta(t, 0.25, toDistanceValue(domain.MetricCosine, 0.75), 1e-9)
}
