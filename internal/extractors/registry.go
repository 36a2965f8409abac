package extractors

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/extractors/docx"
	"github.com/custodia-labs/docsearch/internal/extractors/eml"
	"github.com/custodia-labs/docsearch/internal/extractors/html"
	"github.com/custodia-labs/docsearch/internal/extractors/text"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects the highest-priority extractor for a MIME type.
// Exact media types are matched before "type/*" wildcards.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Extractor)}
}

// DefaultRegistry returns a registry with every built-in extractor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(docx.New())
	r.Register(eml.New())
	r.Register(html.New())
	r.Register(text.New())
	r.Register(text.NewFallback())
	return r
}

// Register adds an extractor under each of its MIME types.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range extractor.SupportedMIMETypes() {
		mt = strings.ToLower(mt)
		list := append(r.byType[mt], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[mt] = list
	}
}

// Extract decodes raw with the best matching extractor. Documents with no
// matching extractor fail with domain.ErrUnsupportedType; extractor failures
// are reported as domain.ErrExtraction.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	extractor, ok := r.lookup(raw.MIMEType)
	if !ok {
		return "", fmt.Errorf("%w: no extractor for %s (%s)", domain.ErrUnsupportedType, raw.Name, raw.MIMEType)
	}

	out, err := extractor.Extract(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) || errors.Is(err, domain.ErrUnsupportedType) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtraction, raw.Name, err)
	}
	return out, nil
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// lookup finds the extractor for a MIME type, ignoring parameters.
func (r *Registry) lookup(mimeType string) (driven.Extractor, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byType[mediaType]; len(list) > 0 {
		return list[0], true
	}
	if i := strings.IndexByte(mediaType, '/'); i > 0 {
		if list := r.byType[mediaType[:i]+"/*"]; len(list) > 0 {
			return list[0], true
		}
	}
	return nil, false
}
