// Package extractors turns raw source files into plain text. Each
// sub-package handles one family of formats; Registry picks the extractor
// for a document by its MIME type.
//
// Extractors are registered with the Registry at startup.
package extractors
