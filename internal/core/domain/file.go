package domain

import "time"

// FileRecord is an indexed file's metadata.
// Records are upserted keyed on (RepoID, Path) and replaced wholesale on
// each full sync.
type FileRecord struct {
	// RepoID links to the owning Repository.
	RepoID string

	// Path is the repository-relative file path.
	Path string

	// ContentHash is the SHA of the indexed blob.
	ContentHash string

	// Size is the blob size in bytes.
	Size int64

	// Language is the detected source language, empty when unknown.
	Language string

	// LastIndexedAt is when the file content was last fetched.
	LastIndexedAt time.Time
}

// Chunk is a bounded slice of a file's text, the unit of embedding and
// retrieval. Ordering within a file is stable and zero-based.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// RepoID links to the owning Repository.
	RepoID string

	// FilePath is the repository-relative path of the source file.
	FilePath string

	// Index is the zero-based ordinal position within the file.
	Index int

	// Text is the chunk content.
	Text string

	// TokenCount is the approximate token count of Text.
	TokenCount int

	// Embedding is the vector representation. Nil signals a degraded
	// text-only entry, never a fatal condition.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
