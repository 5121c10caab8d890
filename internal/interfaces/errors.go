package interfaces

import "errors"

// Input validation errors. These are rejected before any record is created
// and never mark a document as failed.
var (
	// ErrFileTooLarge is returned when a source file exceeds the ingestion size ceiling
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrUnsupportedFormat is returned when no extractor handles the file's format
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyQuery is returned when a search query is empty or whitespace
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidLimit is returned when a search limit is negative or zero
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrEmptyText is returned when embedding is requested for empty text
	ErrEmptyText = errors.New("text must not be empty")
)

// External provider errors.
var (
	// ErrEmbeddingUnavailable is returned when no embedding provider is configured
	ErrEmbeddingUnavailable = errors.New("embedding provider not available")

	// ErrEmbeddingFailed is returned when the embedding provider rejects a request
	ErrEmbeddingFailed = errors.New("embedding request failed")

	// ErrExtractionTimeout is returned when text extraction exceeds its deadline
	ErrExtractionTimeout = errors.New("text extraction timed out")

	// ErrCorruptFile is returned when a file cannot be parsed as its declared format
	ErrCorruptFile = errors.New("file is corrupt or unreadable")
)

// Storage errors.
var (
	// ErrDocumentNotFound is returned when a document ID has no record
	ErrDocumentNotFound = errors.New("document not found")

	// ErrChunkNotFound is returned when a chunk ID has no record
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrVectorNotFound is returned when a chunk has no stored vector
	ErrVectorNotFound = errors.New("vector not found")

	// ErrDimensionMismatch is returned when a vector's dimension does not match the store
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
