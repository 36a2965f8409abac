package domain

// RawDocument represents opaque bytes read from a source directory.
// It is the input of text extraction.
type RawDocument struct {
	// Name is the entry name within the source directory.
	Name string

	// Path is the full path of the entry.
	Path string

	// MIMEType is the detected content type (e.g., "text/plain; charset=utf-8").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
