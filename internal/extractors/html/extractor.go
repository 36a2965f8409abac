// Package html extracts readable text from HTML documents. Markup, scripts,
// styles and navigation chrome are dropped; the page title is kept.
package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// removed lists elements that never carry document text.
const removed = "script, style, noscript, template, svg, nav, footer, iframe"

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the title followed by the visible body text, one block per line.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if len(bytes.TrimSpace(raw.Content)) == 0 {
		return "", nil
	}

	// Honours BOMs, the declared charset and <meta charset>.
	reader, err := charset.NewReader(bytes.NewReader(raw.Content), raw.MIMEType)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtraction, raw.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", domain.ErrExtraction, raw.Name, err)
	}

	doc.Find(removed).Remove()

	var lines []string
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		lines = append(lines, title)
	}
	doc.Find("head").Remove()

	// Break lines at block boundaries before flattening.
	doc.Find("p, div, br, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article").
		Each(func(_ int, s *goquery.Selection) {
			s.AppendHtml("\n")
		})

	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
