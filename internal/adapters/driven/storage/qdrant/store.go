// Package qdrant provides a driven.VectorStore backed by a remote Qdrant
// cluster, reached over its REST API by URI and API key.
//
// Qdrant maintains an HNSW graph per collection. Declared IVF indexes are
// mapped onto it: the metric selects the collection distance and nprobe is
// passed as the query-time hnsw_ef.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the cluster endpoint, e.g. https://xyz.cloud.qdrant.io:6333.
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// WaitForAck makes inserts wait until the cluster has applied them.
	WaitForAck bool

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to a Qdrant cluster.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
	wait    bool
}

// NewStore creates a new Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant URL is required", domain.ErrConnection)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		wait:    cfg.WaitForAck,
	}, nil
}

// Connect verifies the cluster is reachable and accepts the credentials.
func (s *Store) Connect(ctx context.Context) (driven.Connection, error) {
	c := &Connection{store: s, dims: make(map[string]int)}
	if _, err := c.do(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// Connection is a handle on a Qdrant cluster.
type Connection struct {
	store  *Store
	closed bool

	// dims caches collection dimensions for insert validation.
	dims map[string]int
}

// apiError is the error envelope of the Qdrant API.
type apiError struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

// statusError is returned for non-2xx responses.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant error (status %d): %s", e.code, e.message)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

// do sends a request and decodes the result field into out.
func (c *Connection) do(ctx context.Context, method, path string, body, out any) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("%w: connection is closed", domain.ErrConnection)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.store.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.store.apiKey != "" {
		req.Header.Set("api-key", c.store.apiKey)
	}

	resp, err := c.store.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, fmt.Errorf("%w: credentials rejected (status %d)", domain.ErrConnection, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		var ae apiError
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &ae) == nil && ae.Status.Error != "" {
			msg = ae.Status.Error
		}
		return resp.StatusCode, &statusError{code: resp.StatusCode, message: msg}
	}

	if out != nil {
		envelope := struct {
			Result any `json:"result"`
		}{Result: out}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Capabilities reports optional behaviour.
func (c *Connection) Capabilities() driven.StoreCapabilities {
	return driven.StoreCapabilities{SynchronousInsert: c.store.wait}
}

// collectionPath is the escaped REST path of a collection.
func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// collectionInfo is the subset of GET /collections/{name} used here.
type collectionInfo struct {
	Status      string `json:"status"`
	PointsCount int64  `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

func (c *Connection) info(ctx context.Context, name string) (*collectionInfo, error) {
	var info collectionInfo
	if _, err := c.do(ctx, http.MethodGet, collectionPath(name), nil, &info); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
		}
		return nil, err
	}
	return &info, nil
}

// HasCollection reports whether a collection exists.
func (c *Connection) HasCollection(ctx context.Context, name string) (bool, error) {
	_, err := c.info(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateCollection creates an empty collection with Euclidean distance.
// CreateIndex replaces the distance while the collection is still empty.
func (c *Connection) CreateCollection(ctx context.Context, schema domain.CollectionSchema) error {
	dim := schema.Dimension()
	if dim <= 0 {
		return fmt.Errorf("%w: collection %s has no vector field", domain.ErrSchema, schema.Name)
	}
	exists, err := c.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("collection %s: %w", schema.Name, domain.ErrAlreadyExists)
	}
	if err := c.put(ctx, schema.Name, dim, distanceEuclid); err != nil {
		return err
	}
	c.dims[schema.Name] = dim
	return nil
}

func (c *Connection) put(ctx context.Context, name string, dim int, distance string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": distance,
		},
	}
	if _, err := c.do(ctx, http.MethodPut, collectionPath(name), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// DropCollection deletes a collection. Missing collections are ignored.
func (c *Connection) DropCollection(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, collectionPath(name), nil, nil)
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	delete(c.dims, name)
	return nil
}

// CreateIndex applies the index metric as the collection distance.
func (c *Connection) CreateIndex(ctx context.Context, name string, spec domain.IndexSpec) error {
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return err
	}
	distance, err := toDistance(spec.Metric)
	if err != nil {
		return err
	}

	info, err := c.info(ctx, name)
	if err != nil {
		return err
	}
	if info.Config.Params.Vectors.Distance == distance {
		return nil
	}
	if info.PointsCount > 0 {
		return fmt.Errorf("%w: cannot change distance of non-empty collection %s", domain.ErrSchema, name)
	}

	if err := c.DropCollection(ctx, name); err != nil {
		return err
	}
	if err := c.put(ctx, name, info.Config.Params.Vectors.Size, distance); err != nil {
		return err
	}
	c.dims[name] = info.Config.Params.Vectors.Size
	return nil
}

// Insert upserts one point; payload carries file_name and text.
func (c *Connection) Insert(ctx context.Context, name string, doc domain.Document) error {
	dim, ok := c.dims[name]
	if !ok {
		info, err := c.info(ctx, name)
		if err != nil {
			return err
		}
		dim = info.Config.Params.Vectors.Size
		c.dims[name] = dim
	}
	if err := doc.Validate(dim); err != nil {
		return err
	}

	body := map[string]any{
		"points": []map[string]any{
			{
				"id":     doc.ID,
				"vector": doc.Embedding,
				"payload": map[string]any{
					domain.FieldSourceName: doc.SourceName,
					domain.FieldText:       doc.Text,
				},
			},
		},
	}
	path := fmt.Sprintf("%s/points?wait=%t", collectionPath(name), c.store.wait)
	if _, err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("upsert point %d: %w", doc.ID, err)
	}
	return nil
}

// Describe returns collection metadata.
func (c *Connection) Describe(ctx context.Context, name string) (*domain.Collection, error) {
	info, err := c.info(ctx, name)
	if err != nil {
		return nil, err
	}
	dim := info.Config.Params.Vectors.Size
	schema, err := domain.NewCollectionSchema(name, dim)
	if err != nil {
		return nil, err
	}
	metric, err := fromDistance(info.Config.Params.Vectors.Distance)
	if err != nil {
		return nil, err
	}
	return &domain.Collection{
		Name:      name,
		Dimension: dim,
		Schema:    schema,
		Index: &domain.IndexSpec{
			Field:  domain.FieldEmbedding,
			Kind:   domain.IndexHNSW,
			Metric: metric,
		},
		Count:  info.PointsCount,
		Loaded: info.Status == "green",
	}, nil
}

// ListCollections returns collection names in ascending order.
func (c *Connection) ListCollections(ctx context.Context) ([]string, error) {
	var result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/collections", nil, &result); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names := make([]string, 0, len(result.Collections))
	for _, col := range result.Collections {
		names = append(names, col.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Load checks the collection exists. Qdrant keeps collections resident.
func (c *Connection) Load(ctx context.Context, name string) error {
	_, err := c.info(ctx, name)
	return err
}

// Search runs a nearest-neighbour query.
func (c *Connection) Search(ctx context.Context, name string, req driven.SearchRequest) ([]driven.Hit, error) {
	info, err := c.info(ctx, name)
	if err != nil {
		return nil, err
	}
	metric, err := fromDistance(info.Config.Params.Vectors.Distance)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":       req.Vector,
		"limit":        req.Limit,
		"with_payload": req.OutputFields,
	}
	if req.NProbe > 0 {
		body["params"] = map[string]any{"hnsw_ef": max(req.NProbe, req.Limit)}
	}

	var points []struct {
		ID      int64          `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	}
	if _, err := c.do(ctx, http.MethodPost, collectionPath(name)+"/points/search", body, &points); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}

	hits := make([]driven.Hit, 0, len(points))
	for _, p := range points {
		hit := driven.Hit{ID: p.ID, Distance: toDistanceValue(metric, p.Score), Fields: make(map[string]string)}
		for _, f := range req.OutputFields {
			if v, ok := p.Payload[f].(string); ok {
				hit.Fields[f] = v
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the connection.
func (c *Connection) Close() error {
	c.closed = true
	c.store.client.CloseIdleConnections()
	return nil
}
