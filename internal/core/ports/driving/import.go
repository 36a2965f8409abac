package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// ImportService loads a directory of documents into a collection.
type ImportService interface {
	// Import replaces the named collection with the documents found directly
	// in dataPath. Entries that cannot be extracted are skipped and listed in
	// the report. Any other failure aborts the run.
	Import(ctx context.Context, dataPath, collection string) (*domain.ImportReport, error)
}
