package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.SourceReader = (*Reader)(nil)

// DefaultMaxFileSize bounds the bytes read from a single file.
const DefaultMaxFileSize int64 = 64 << 20

// Reader is a driven.SourceReader over the local filesystem.
type Reader struct {
	maxFileSize int64
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxFileSize overrides DefaultMaxFileSize. Non-positive values are ignored.
func WithMaxFileSize(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxFileSize = n
		}
	}
}

// NewReader creates a filesystem reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the entries of dir sorted by name.
func (r *Reader) List(ctx context.Context, dir string) ([]driven.SourceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	// os.ReadDir returns entries sorted by filename.
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	entries := make([]driven.SourceEntry, 0, len(dirEntries))
	for _, e := range dirEntries {
		path := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil {
				isDir = target.IsDir()
			}
		}
		entries = append(entries, driven.SourceEntry{
			Name:  e.Name(),
			Path:  path,
			IsDir: isDir,
		})
	}
	return entries, nil
}

// Read loads an entry and detects its MIME type from its content.
func (r *Reader) Read(ctx context.Context, entry driven.SourceEntry) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry.IsDir {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrExtraction, entry.Name)
	}

	info, err := os.Stat(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, entry.Name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrExtraction, entry.Name)
	}
	if info.Size() > r.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrExtraction, entry.Name, info.Size(), r.maxFileSize)
	}

	content, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, entry.Name, err)
	}

	return &domain.RawDocument{
		Name:     entry.Name,
		Path:     entry.Path,
		MIMEType: detectMIMEType(entry.Name, content),
		Content:  content,
	}, nil
}

// markdownExtensions are refined from text/plain, which content sniffing
// cannot tell apart.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
}

// detectMIMEType sniffs content and keeps any charset parameter.
func detectMIMEType(name string, content []byte) string {
	mt := mimetype.Detect(content)
	ext := strings.ToLower(filepath.Ext(name))
	if mt.Is("text/plain") && ext == ".eml" {
		return "message/rfc822"
	}
	if mt.Is("text/plain") && markdownExtensions[ext] {
		if _, params, ok := strings.Cut(mt.String(), ";"); ok {
			return "text/markdown;" + params
		}
		return "text/markdown"
	}
	return mt.String()
}
