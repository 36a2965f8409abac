package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/index/ivf"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed collection store.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	loaded map[string]*loadedIndex
}

// loadedIndex is a search-ready index and the collection generation it was
// built from. Any write, from this process or another, moves the generation on.
type loadedIndex struct {
	index      *ivf.Index
	generation int64
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// touch stamps a collection with the next database-wide generation.
func touch(ctx context.Context, tx *sql.Tx, name string) error {
	var gen int64
	err := tx.QueryRowContext(ctx,
		"UPDATE store_meta SET value = value + 1 WHERE key = 'generation' RETURNING value").Scan(&gen)
	if err != nil {
		return fmt.Errorf("next generation: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET generation = ? WHERE name = ?", gen, name); err != nil {
		return fmt.Errorf("stamp %s: %w", name, err)
	}
	return nil
}

// write runs fn in a transaction that ends by stamping the collection.
func (s *Store) write(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := touch(ctx, tx, name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.invalidate(name)
	return nil
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docsearch/data/docsearch.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrConnection, err)
	}

	dbPath := filepath.Join(dataDir, "docsearch.db")

	// WAL for concurrent readers; foreign keys on every pooled connection
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrConnection, err)
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		loaded: make(map[string]*loadedIndex),
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrConnection, err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Connect opens a connection handle after checking the database is reachable.
func (s *Store) Connect(ctx context.Context) (driven.Connection, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	return &Connection{store: s}, nil
}

func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("Applied migration %s", name)
	}

	return nil
}

func (s *Store) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loaded, name)
}

func (s *Store) cached(name string) (*loadedIndex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	li, ok := s.loaded[name]
	return li, ok
}

// Connection is a handle on a Store.
type Connection struct {
	store  *Store
	closed bool
}

// Capabilities reports optional behaviour. SQLite commits are synchronous.
func (c *Connection) Capabilities() driven.StoreCapabilities {
	return driven.StoreCapabilities{SynchronousInsert: true}
}

// HasCollection reports whether a collection exists.
func (c *Connection) HasCollection(ctx context.Context, name string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	var n int
	err := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query collection: %w", err)
	}
	return n > 0, nil
}

// CreateCollection creates an empty collection.
func (c *Connection) CreateCollection(ctx context.Context, schema domain.CollectionSchema) error {
	if err := c.check(); err != nil {
		return err
	}
	if schema.Dimension() <= 0 {
		return fmt.Errorf("%w: collection %s has no vector field", domain.ErrSchema, schema.Name)
	}
	exists, err := c.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("collection %s: %w", schema.Name, domain.ErrAlreadyExists)
	}

	layout, err := json.Marshal(schema.Fields)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return c.store.write(ctx, schema.Name, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, description, dimension, schema_json)
			VALUES (?, ?, ?, ?)
		`, schema.Name, schema.Description, schema.Dimension(), string(layout))
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}
		return nil
	})
}

// DropCollection removes a collection with its documents and index state.
func (c *Connection) DropCollection(ctx context.Context, name string) error {
	if err := c.check(); err != nil {
		return err
	}
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{
		"DELETE FROM index_state WHERE collection = ?",
		"DELETE FROM documents WHERE collection = ?",
		"DELETE FROM collections WHERE name = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	c.store.invalidate(name)
	return nil
}

// CreateIndex declares the collection index and discards any trained state.
func (c *Connection) CreateIndex(ctx context.Context, name string, spec domain.IndexSpec) error {
	if err := c.check(); err != nil {
		return err
	}
	spec = spec.WithDefaults()
	if _, err := ivf.New(spec, 1); err != nil {
		return err
	}

	return c.store.write(ctx, name, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE collections
			SET index_kind = ?, index_metric = ?, index_nlist = ?, index_nprobe = ?
			WHERE name = ?
		`, spec.Kind.String(), spec.Metric.String(), spec.Params.NList, spec.Params.NProbe, name)
		if err != nil {
			return fmt.Errorf("update index: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM index_state WHERE collection = ?", name); err != nil {
			return fmt.Errorf("reset index state: %w", err)
		}
		return nil
	})
}

// Insert appends a document.
func (c *Connection) Insert(ctx context.Context, name string, doc domain.Document) error {
	if err := c.check(); err != nil {
		return err
	}
	info, err := c.Describe(ctx, name)
	if err != nil {
		return err
	}
	if err := doc.Validate(info.Dimension); err != nil {
		return err
	}

	return c.store.write(ctx, name, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, file_name, text, embedding)
			VALUES (?, ?, ?, ?, ?)
		`, name, doc.ID, doc.SourceName, doc.Text, ivf.EncodeVector(doc.Embedding))
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("document %d: %w", doc.ID, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("insert document %d: %w", doc.ID, err)
		}
		return nil
	})
}

// Describe returns collection metadata. Loaded is set while the cached
// index matches the collection's current generation.
func (c *Connection) Describe(ctx context.Context, name string) (*domain.Collection, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	out, err := describe(ctx, c.store.db, name)
	if err != nil {
		return nil, err
	}
	if li, ok := c.store.cached(name); ok && li.generation == out.generation {
		out.Loaded = true
	}
	return out.Collection, nil
}

// described is a collection read together with its generation.
type described struct {
	*domain.Collection
	generation int64
}

func describe(ctx context.Context, q queryer, name string) (described, error) {
	var (
		description, layout string
		dimension           int
		generation          int64
		kind, metric        sql.NullString
		nlist, nprobe       sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT description, dimension, schema_json, generation,
		       index_kind, index_metric, index_nlist, index_nprobe
		FROM collections WHERE name = ?
	`, name).Scan(&description, &dimension, &layout, &generation, &kind, &metric, &nlist, &nprobe)
	if errors.Is(err, sql.ErrNoRows) {
		return described{}, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return described{}, fmt.Errorf("query collection: %w", err)
	}

	var fields []domain.FieldSchema
	if err := json.Unmarshal([]byte(layout), &fields); err != nil {
		return described{}, fmt.Errorf("%w: decode layout of %s: %w", domain.ErrSchema, name, err)
	}

	var count int64
	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", name).Scan(&count)
	if err != nil {
		return described{}, fmt.Errorf("count documents: %w", err)
	}

	out := &domain.Collection{
		Name:      name,
		Dimension: dimension,
		Schema:    domain.CollectionSchema{Name: name, Description: description, Fields: fields},
		Count:     count,
	}
	if kind.Valid {
		out.Index = &domain.IndexSpec{
			Field:  domain.FieldEmbedding,
			Kind:   domain.IndexKind(kind.String),
			Metric: domain.Metric(metric.String),
			Params: domain.IndexParams{NList: int(nlist.Int64), NProbe: int(nprobe.Int64)},
		}
	}
	return described{Collection: out, generation: generation}, nil
}

// ListCollections returns collection names in ascending order.
func (c *Connection) ListCollections(ctx context.Context) ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	rows, err := c.store.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Load builds the search index of a collection, reusing trained centroids
// saved for the same generation. The collection row and its vectors are read
// in one transaction so the index matches the generation it is cached under.
func (c *Connection) Load(ctx context.Context, name string) error {
	if err := c.check(); err != nil {
		return err
	}
	info, err := c.Describe(ctx, name)
	if err != nil {
		return err
	}
	if info.Loaded {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read only

	snap, err := describe(ctx, tx, name)
	if err != nil {
		return err
	}
	if snap.Index == nil {
		return fmt.Errorf("%w: collection %s has no index", domain.ErrSearch, name)
	}
	ids, vecs, err := vectors(ctx, tx, name)
	if err != nil {
		return err
	}
	ix, err := ivf.New(*snap.Index, snap.Dimension)
	if err != nil {
		return err
	}

	restored := false
	var trainedOn, stateGen int64
	var state []byte
	err = tx.QueryRowContext(ctx,
		"SELECT trained_on, generation, state FROM index_state WHERE collection = ?", name,
	).Scan(&trainedOn, &stateGen, &state)
	switch {
	case err == nil && stateGen == snap.generation && trainedOn == int64(len(ids)):
		if uerr := ix.UnmarshalBinary(state); uerr != nil {
			logger.Warn("Discarding index state of %s: %v", name, uerr)
		} else {
			restored = true
		}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("read index state: %w", err)
	}
	tx.Rollback() //nolint:errcheck // reads done

	if !restored {
		logger.Debug("Training index for %s on %d vectors", name, len(vecs))
		if err := ix.Train(vecs); err != nil {
			return fmt.Errorf("%w: train %s: %w", domain.ErrSearch, name, err)
		}
		if err := c.saveState(ctx, name, snap.generation, ix); err != nil {
			return err
		}
	}
	if err := ix.Add(ids, vecs); err != nil {
		return fmt.Errorf("%w: index %s: %w", domain.ErrSearch, name, err)
	}

	c.store.mu.Lock()
	c.store.loaded[name] = &loadedIndex{index: ix, generation: snap.generation}
	c.store.mu.Unlock()
	return nil
}

// Search queries a loaded collection. A cached index that another writer
// has made stale is rebuilt first.
func (c *Connection) Search(ctx context.Context, name string, req driven.SearchRequest) ([]driven.Hit, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if _, ok := c.store.cached(name); !ok {
		return nil, fmt.Errorf("%w: collection %s is not loaded", domain.ErrSearch, name)
	}
	if err := c.Load(ctx, name); err != nil {
		return nil, err
	}
	li, ok := c.store.cached(name)
	if !ok {
		return nil, fmt.Errorf("%w: collection %s is not loaded", domain.ErrSearch, name)
	}

	neighbours, err := li.index.Search(req.Vector, req.Limit, req.NProbe)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	if len(neighbours) == 0 {
		return []driven.Hit{}, nil
	}

	fields, err := c.fields(ctx, name, neighbours)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.Hit, 0, len(neighbours))
	for _, n := range neighbours {
		row := fields[n.ID]
		hit := driven.Hit{ID: n.ID, Distance: n.Distance, Fields: make(map[string]string, len(req.OutputFields))}
		for _, f := range req.OutputFields {
			if v, ok := row[f]; ok {
				hit.Fields[f] = v
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the connection handle. The database stays open.
func (c *Connection) Close() error {
	c.closed = true
	return nil
}

func (c *Connection) check() error {
	if c.closed {
		return fmt.Errorf("%w: connection is closed", domain.ErrConnection)
	}
	return nil
}

func vectors(ctx context.Context, q queryer, name string) ([]int64, [][]float32, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, embedding FROM documents WHERE collection = ? ORDER BY id", name)
	if err != nil {
		return nil, nil, fmt.Errorf("read vectors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var vecs [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, err
		}
		v, err := ivf.DecodeVector(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", id, err)
		}
		ids = append(ids, id)
		vecs = append(vecs, v)
	}
	return ids, vecs, rows.Err()
}

func (c *Connection) saveState(ctx context.Context, name string, generation int64, ix *ivf.Index) error {
	state, err := ix.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO index_state (collection, trained_on, generation, state, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection) DO UPDATE SET
			trained_on = excluded.trained_on,
			generation = excluded.generation,
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP
	`, name, ix.TrainedOn(), generation, state)
	if err != nil {
		return fmt.Errorf("save index state: %w", err)
	}
	return nil
}

// fields fetches file_name and text for the given neighbours.
func (c *Connection) fields(ctx context.Context, name string, neighbours []ivf.Neighbour) (map[int64]map[string]string, error) {
	placeholders := make([]string, len(neighbours))
	args := make([]any, 0, len(neighbours)+1)
	args = append(args, name)
	for i, n := range neighbours {
		placeholders[i] = "?"
		args = append(args, n.ID)
	}

	//nolint:gosec // G202: placeholders only, values are bound
	query := "SELECT id, file_name, text FROM documents WHERE collection = ? AND id IN (" +
		strings.Join(placeholders, ",") + ")"
	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch fields: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[string]string, len(neighbours))
	for rows.Next() {
		var id int64
		var fileName, text string
		if err := rows.Scan(&id, &fileName, &text); err != nil {
			return nil, err
		}
		out[id] = map[string]string{
			domain.FieldSourceName: fileName,
			domain.FieldText:       text,
		}
	}
	return out, rows.Err()
}
