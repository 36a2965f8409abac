package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSearchOptions_DefaultValues tests SearchOptions with zero values
func TestSearchOptions_DefaultValues(t *testing.T) {
	opts := SearchOptions{}

	assert.Equal(t, 0, opts.TopK)
	assert.Equal(t, 0, opts.NProbe)
}

func TestDefaultTopK(t *testing.T) {
	assert.Equal(t, 2, DefaultTopK)
}

// TestSearchResult_JSON tests the projected field names
func TestSearchResult_JSON(t *testing.T) {
	result := SearchResult{ID: 0, SourceName: "a.md", Text: "HelloWorld", Distance: 0.25}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "a.md", decoded["source_name"])
	assert.Equal(t, "HelloWorld", decoded["text"])
	assert.Contains(t, decoded, "id")
	assert.Contains(t, decoded, "distance")
}
