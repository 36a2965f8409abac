package domain

import "fmt"

// Field names of the collection layout.
const (
	FieldID         = "id"
	FieldSourceName = "file_name"
	FieldText       = "text"
	FieldEmbedding  = "embedding"
)

// DefaultDimension is the embedding size used when none is configured.
const DefaultDimension = 768

// FieldType is the storage type of a collection field.
type FieldType string

// Supported field types.
const (
	FieldTypeInt64       FieldType = "INT64"
	FieldTypeVarChar     FieldType = "VARCHAR"
	FieldTypeFloatVector FieldType = "FLOAT_VECTOR"
)

// FieldSchema describes one field of a collection.
type FieldSchema struct {
	Name        string
	Type        FieldType
	Description string

	// Primary marks the primary key. Primary keys are caller-assigned.
	Primary bool

	// AutoID is always false: ids must stay stable across runs.
	AutoID bool

	// MaxLength bounds VARCHAR fields, in bytes.
	MaxLength int

	// Dimension is the vector length of FLOAT_VECTOR fields.
	Dimension int
}

// CollectionSchema is the fixed field layout of a collection.
type CollectionSchema struct {
	Name        string
	Description string
	Fields      []FieldSchema
}

// NewCollectionSchema builds the four-field document layout.
func NewCollectionSchema(name string, dimension int) (CollectionSchema, error) {
	if name == "" {
		return CollectionSchema{}, fmt.Errorf("%w: collection name is required", ErrSchema)
	}
	if dimension <= 0 {
		return CollectionSchema{}, fmt.Errorf("%w: dimension must be positive, got %d", ErrSchema, dimension)
	}
	return CollectionSchema{
		Name:        name,
		Description: "Indexed documents",
		Fields: []FieldSchema{
			{Name: FieldID, Type: FieldTypeInt64, Description: "Ids", Primary: true},
			{Name: FieldSourceName, Type: FieldTypeVarChar, Description: "File Name", MaxLength: MaxSourceNameLength},
			{Name: FieldText, Type: FieldTypeVarChar, Description: "Text Content", MaxLength: MaxTextLength},
			{Name: FieldEmbedding, Type: FieldTypeFloatVector, Description: "Embedding vectors", Dimension: dimension},
		},
	}, nil
}

// Dimension returns the vector length of the embedding field, or 0 if absent.
func (s CollectionSchema) Dimension() int {
	for _, f := range s.Fields {
		if f.Type == FieldTypeFloatVector {
			return f.Dimension
		}
	}
	return 0
}

// Field returns the named field.
func (s CollectionSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Metric is the distance function of an index.
// Every metric is expressed as a distance: smaller means nearer.
type Metric string

// Supported metrics.
const (
	// MetricL2 is squared Euclidean distance.
	MetricL2 Metric = "L2"

	// MetricIP is negated inner product.
	MetricIP Metric = "IP"

	// MetricCosine is one minus cosine similarity.
	MetricCosine Metric = "COSINE"
)

// IsValid returns true if the metric is recognised.
func (m Metric) IsValid() bool {
	switch m {
	case MetricL2, MetricIP, MetricCosine:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// IndexKind is the internal structure of a vector index.
type IndexKind string

// Supported index kinds.
const (
	// IndexIVFFlat partitions vectors into nlist inverted lists around trained
	// centroids and scans nprobe of them exhaustively at query time.
	IndexIVFFlat IndexKind = "IVF_FLAT"

	// IndexFlat scans every vector.
	IndexFlat IndexKind = "FLAT"

	// IndexHNSW is the graph index maintained by remote stores such as Qdrant.
	IndexHNSW IndexKind = "HNSW"
)

// IsValid returns true if the index kind is recognised.
func (k IndexKind) IsValid() bool {
	switch k {
	case IndexIVFFlat, IndexFlat, IndexHNSW:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k IndexKind) String() string {
	return string(k)
}

// Index defaults.
const (
	DefaultNList  = 1024
	DefaultNProbe = 10
)

// IndexParams holds index tuning parameters.
type IndexParams struct {
	// NList is the number of inverted-file partitions built.
	NList int

	// NProbe is the number of partitions scanned per query.
	NProbe int
}

// IndexSpec declares the similarity index of a collection.
type IndexSpec struct {
	Field  string
	Kind   IndexKind
	Metric Metric
	Params IndexParams
}

// DefaultIndexSpec returns IVF_FLAT over the embedding field with L2 distance.
func DefaultIndexSpec() IndexSpec {
	return IndexSpec{
		Field:  FieldEmbedding,
		Kind:   IndexIVFFlat,
		Metric: MetricL2,
		Params: IndexParams{NList: DefaultNList, NProbe: DefaultNProbe},
	}
}

// WithDefaults fills unset values from DefaultIndexSpec.
func (s IndexSpec) WithDefaults() IndexSpec {
	d := DefaultIndexSpec()
	if s.Field == "" {
		s.Field = d.Field
	}
	if s.Kind == "" {
		s.Kind = d.Kind
	}
	if s.Metric == "" {
		s.Metric = d.Metric
	}
	if s.Params.NList == 0 {
		s.Params.NList = d.Params.NList
	}
	if s.Params.NProbe == 0 {
		s.Params.NProbe = d.Params.NProbe
	}
	return s
}

// Validate checks the specification.
func (s IndexSpec) Validate() error {
	if s.Field != FieldEmbedding {
		return fmt.Errorf("%w: index field must be %q, got %q", ErrSchema, FieldEmbedding, s.Field)
	}
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: unsupported index kind %q", ErrSchema, s.Kind)
	}
	if !s.Metric.IsValid() {
		return fmt.Errorf("%w: unsupported metric %q", ErrSchema, s.Metric)
	}
	if s.Kind == IndexIVFFlat && s.Params.NList <= 0 {
		return fmt.Errorf("%w: nlist must be positive, got %d", ErrSchema, s.Params.NList)
	}
	if s.Params.NProbe < 0 {
		return fmt.Errorf("%w: nprobe must not be negative, got %d", ErrSchema, s.Params.NProbe)
	}
	return nil
}

// Collection is a named, schema-typed container of documents plus one index.
type Collection struct {
	Name      string
	Dimension int
	Schema    CollectionSchema

	// Index is nil until an index has been built.
	Index *IndexSpec

	// Count is the number of stored documents.
	Count int64

	// Loaded reports whether index and data are resident for search.
	Loaded bool
}

// HasIndex returns true if an index has been built.
func (c *Collection) HasIndex() bool {
	return c.Index != nil
}
