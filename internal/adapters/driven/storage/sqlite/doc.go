// Package sqlite provides a SQLite-backed implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Collections, their documents and the
// trained state of their IVF indexes live in a single database file:
//
//   - collections: name, layout, declared index and write generation
//   - documents: id, file_name, text and the little-endian embedding blob
//   - index_state: trained centroids, reused while the generation is unchanged
//   - store_meta: the database-wide generation counter
//
// Every write stamps its collection with a fresh generation. Indexes loaded by
// one process are rebuilt once another process changes the collection.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docsearch/data/docsearch.db
//
// # Thread Safety
//
// All operations are thread-safe. Loaded indexes are guarded by a store mutex;
// the database itself runs in WAL mode.
package sqlite
