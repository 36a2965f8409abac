package domain

// DefaultTopK is the number of results returned when none is requested.
const DefaultTopK = 2

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// TopK is the maximum number of results (default 2).
	TopK int

	// NProbe overrides the number of partitions scanned. Zero uses the
	// collection's index setting.
	NProbe int
}

// SearchResult represents a single search hit projected from storage.
type SearchResult struct {
	// ID is the document id.
	ID int64 `json:"id"`

	// SourceName is the origin of the document (file name).
	SourceName string `json:"source_name"`

	// Text is the stored normalised text.
	Text string `json:"text"`

	// Distance is the metric distance to the query; smaller is nearer.
	Distance float64 `json:"distance"`
}
