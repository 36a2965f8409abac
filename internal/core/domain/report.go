package domain

import "time"

// SkippedEntry records a source entry that was not imported.
type SkippedEntry struct {
	// Name is the entry name within the source directory.
	Name string

	// Reason is the extraction error message.
	Reason string
}

// ImportReport summarises one import run.
type ImportReport struct {
	// RunID identifies the run in logs.
	RunID string

	// Collection is the collection that was (re)built.
	Collection string

	// Imported is the number of documents written; ids are 0..Imported-1.
	Imported int

	// Skipped lists entries that failed extraction.
	Skipped []SkippedEntry

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}
