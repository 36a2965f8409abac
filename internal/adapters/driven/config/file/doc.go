// Package file provides the TOML-backed configuration store.
//
// Settings live in ~/.docsearch/config.toml as nested tables:
//
//	[store]
//	backend = "sqlite"
//
//	[embedding]
//	provider = "hashing"
//
// Callers address values with dot-notation keys such as "store.backend".
package file
