// Package text decodes plain text, Markdown and other textual formats into
// UTF-8, detecting the byte encoding from the BOM, the declared charset or
// content heuristics.
package text

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles textual documents.
type Extractor struct {
	mimeTypes []string
	priority  int
}

// New creates an extractor for plain text and Markdown.
func New() *Extractor {
	return &Extractor{
		mimeTypes: []string{"text/plain", "text/markdown", "text/x-markdown"},
		priority:  50,
	}
}

// NewFallback creates a low-priority extractor for any other textual content.
// "text/*" matches every text subtype.
func NewFallback() *Extractor {
	return &Extractor{
		mimeTypes: []string{
			"text/*",
			"application/json",
			"application/xml",
			"application/x-ndjson",
			"application/javascript",
			"application/x-sh",
			"image/svg+xml",
		},
		priority: 5,
	}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return e.mimeTypes
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return e.priority
}

// Extract decodes the content to UTF-8. Undecodable bytes are dropped.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if len(raw.Content) == 0 {
		return "", nil
	}

	enc := DetectEncoding(raw.Content, raw.MIMEType)
	decoded, err := io.ReadAll(transform.NewReader(
		bytes.NewReader(raw.Content),
		unicode.BOMOverride(enc.NewDecoder()),
	))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", domain.ErrExtraction, raw.Name, err)
	}

	if bytes.IndexByte(decoded, 0) >= 0 {
		return "", fmt.Errorf("%w: %s contains NUL bytes", domain.ErrExtraction, raw.Name)
	}

	out := string(decoded)
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, "")
	}
	return out, nil
}

// DetectEncoding picks the decoder for content. A BOM always wins at decode
// time; otherwise a charset parameter on mimeType is honoured, then content
// heuristics apply. Unknown labels fall back to UTF-8.
func DetectEncoding(content []byte, mimeType string) encoding.Encoding {
	if _, params, err := mime.ParseMediaType(mimeType); err == nil {
		if label := params["charset"]; label != "" {
			if enc, _ := charset.Lookup(label); enc != nil {
				return enc
			}
		}
	}

	if utf8.Valid(content) {
		return unicode.UTF8
	}

	enc, _, _ := charset.DetermineEncoding(content, "text/plain")
	if enc == nil {
		return unicode.UTF8
	}
	return enc
}
