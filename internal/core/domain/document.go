package domain

// Field length bounds of the stored string fields, in bytes.
const (
	MaxSourceNameLength = 256
	MaxTextLength       = 65535
)

// Document is one indexed unit of a collection.
type Document struct {
	// ID is assigned sequentially from 0 by the import pipeline and never reused.
	ID int64

	// SourceName identifies where the text came from (the file name).
	SourceName string

	// Text is the normalised text content.
	Text string

	// Embedding is the vector produced from Text. Its length always equals
	// the dimension of the owning collection.
	Embedding []float32
}

// Validate checks the document against a collection dimension.
func (d *Document) Validate(dimension int) error {
	if d.ID < 0 {
		return ErrInvalidInput
	}
	if len(d.Embedding) != dimension {
		return ErrEmbedding
	}
	return nil
}

// TruncateUTF8 shortens s to at most maxBytes bytes without splitting a rune.
func TruncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return s[:cut]
}
