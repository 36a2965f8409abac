package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// ResolvePath turns a user-supplied data path into a clean absolute path.
// It accepts file:// URIs and a leading "~" for the home directory.
func ResolvePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "file://")
	if p == "" {
		return "", fmt.Errorf("%w: data path is required", domain.ErrInvalidInput)
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, p, err)
	}
	return abs, nil
}
