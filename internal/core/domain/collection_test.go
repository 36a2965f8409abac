package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectionSchema(t *testing.T) {
	t.Run("defines four fields", func(t *testing.T) {
		schema, err := NewCollectionSchema("docs", 768)
		require.NoError(t, err)

		require.Len(t, schema.Fields, 4)
		assert.Equal(t, "docs", schema.Name)
		assert.Equal(t, 768, schema.Dimension())

		id, ok := schema.Field(FieldID)
		require.True(t, ok)
		assert.True(t, id.Primary)
		assert.False(t, id.AutoID)
		assert.Equal(t, FieldTypeInt64, id.Type)

		name, ok := schema.Field(FieldSourceName)
		require.True(t, ok)
		assert.Equal(t, MaxSourceNameLength, name.MaxLength)

		text, ok := schema.Field(FieldText)
		require.True(t, ok)
		assert.Equal(t, MaxTextLength, text.MaxLength)

		emb, ok := schema.Field(FieldEmbedding)
		require.True(t, ok)
		assert.Equal(t, FieldTypeFloatVector, emb.Type)
	})

	t.Run("rejects non-positive dimension", func(t *testing.T) {
		for _, dim := range []int{0, -1} {
			_, err := NewCollectionSchema("docs", dim)
			assert.True(t, errors.Is(err, ErrSchema))
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCollectionSchema("", 8)
		assert.True(t, errors.Is(err, ErrSchema))
	})

	t.Run("unknown field", func(t *testing.T) {
		schema, err := NewCollectionSchema("docs", 8)
		require.NoError(t, err)
		_, ok := schema.Field("missing")
		assert.False(t, ok)
	})
}

func TestMetric_IsValid(t *testing.T) {
	tests := []struct {
		metric   Metric
		expected bool
	}{
		{MetricL2, true},
		{MetricIP, true},
		{MetricCosine, true},
		{Metric(""), false},
		{Metric("HAMMING"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metric.IsValid())
		})
	}
}

func TestDefaultIndexSpec(t *testing.T) {
	spec := DefaultIndexSpec()

	assert.Equal(t, FieldEmbedding, spec.Field)
	assert.Equal(t, IndexIVFFlat, spec.Kind)
	assert.Equal(t, MetricL2, spec.Metric)
	assert.Equal(t, 1024, spec.Params.NList)
	assert.Equal(t, 10, spec.Params.NProbe)
	assert.NoError(t, spec.Validate())
}

func TestIndexSpec_WithDefaults(t *testing.T) {
	spec := IndexSpec{Metric: MetricCosine, Params: IndexParams{NList: 16}}.WithDefaults()

	assert.Equal(t, MetricCosine, spec.Metric)
	assert.Equal(t, 16, spec.Params.NList)
	assert.Equal(t, DefaultNProbe, spec.Params.NProbe)
	assert.Equal(t, IndexIVFFlat, spec.Kind)
	assert.Equal(t, FieldEmbedding, spec.Field)
}

func TestIndexSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec IndexSpec
		ok   bool
	}{
		{"default", DefaultIndexSpec(), true},
		{"flat without nlist", IndexSpec{Field: FieldEmbedding, Kind: IndexFlat, Metric: MetricIP}, true},
		{"wrong field", IndexSpec{Field: FieldText, Kind: IndexIVFFlat, Metric: MetricL2, Params: IndexParams{NList: 1}}, false},
		{"hnsw without nlist", IndexSpec{Field: FieldEmbedding, Kind: IndexHNSW, Metric: MetricCosine}, true},
		{"unknown kind", IndexSpec{Field: FieldEmbedding, Kind: "DISKANN", Metric: MetricL2}, false},
		{"unknown metric", IndexSpec{Field: FieldEmbedding, Kind: IndexIVFFlat, Metric: "JACCARD", Params: IndexParams{NList: 1}}, false},
		{"zero nlist", IndexSpec{Field: FieldEmbedding, Kind: IndexIVFFlat, Metric: MetricL2}, false},
		{"negative nprobe", IndexSpec{Field: FieldEmbedding, Kind: IndexFlat, Metric: MetricL2, Params: IndexParams{NProbe: -1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrSchema))
			}
		})
	}
}

func TestCollection_HasIndex(t *testing.T) {
	c := Collection{Name: "docs", Dimension: 4}
	assert.False(t, c.HasIndex())

	spec := DefaultIndexSpec()
	c.Index = &spec
	assert.True(t, c.HasIndex())
}
