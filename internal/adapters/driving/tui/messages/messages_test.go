package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewCollections, "collections"},
		{ViewSearch, "search"},
		{ViewDocument, "document"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestViewType_StartsWithCollections(t *testing.T) {
	var zero ViewType
	assert.Equal(t, ViewCollections, zero)
}

func TestSearchCompleted_CarriesError(t *testing.T) {
	msg := SearchCompleted{Collection: "docs", Err: errors.Join(domain.ErrSearch, domain.ErrNotFound)}

	assert.ErrorIs(t, msg.Err, domain.ErrSearch)
	assert.Nil(t, msg.Results)
}
