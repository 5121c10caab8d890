package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// DocumentStorage - interface for document metadata persistence
type DocumentStorage interface {
	// CRUD operations
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	UpdateDocument(doc *models.Document) error
	DeleteDocument(id string) error

	// List operations
	ListDocuments(opts *ListOptions) ([]*models.Document, error)

	// Stats operations
	CountDocuments() (int, error)
	CountDocumentsByStatus(status models.DocumentStatus) (int, error)
}

// ChunkStorage - interface for chunk persistence
type ChunkStorage interface {
	SaveChunk(chunk *models.Chunk) error
	SaveChunks(chunks []*models.Chunk) error
	GetChunk(id string) (*models.Chunk, error)

	// GetChunksByDocument returns a document's chunks ordered by Index
	GetChunksByDocument(documentID string) ([]*models.Chunk, error)
	CountChunksByDocument(documentID string) (int, error)
	DeleteChunksByDocument(documentID string) error
}

// VectorStorage - interface for embedding vector persistence and similarity search
type VectorStorage interface {
	SaveVector(vector *models.EmbeddingVector) error
	GetVector(chunkID string) (*models.EmbeddingVector, error)
	HasVector(chunkID string) (bool, error)
	DeleteVector(chunkID string) error
	DeleteVectorsByDocument(documentID string) error

	// SearchSimilar returns up to limit matches ordered by ascending L2
	// distance, restricted to chunks of completed documents matching scope
	SearchSimilar(queryVector []float32, limit int, scope models.Scope) ([]models.VectorMatch, error)

	// Stats operations
	CountVectors() (int, error)
	Dimension() int
}

// FileStorage - interface for original file persistence on disk
type FileStorage interface {
	// Store copies the source file into the document's directory and
	// returns the stored path
	Store(documentID, sourcePath, fileType string) (string, error)

	// Delete removes the document's directory and everything in it
	Delete(documentID string) error

	// DocumentDir returns the directory a document's files live in
	DocumentDir(documentID string) string
}

// StorageManager - composite interface for all record storage
type StorageManager interface {
	DocumentStorage() DocumentStorage
	ChunkStorage() ChunkStorage
	VectorStorage() VectorStorage
	DB() interface{}

	// RunGC reclaims disk space from deleted and rewritten records.
	// Long-running processes call it periodically; a run that finds
	// nothing to reclaim is not an error.
	RunGC() error

	Close() error
}

// ListOptions for listing documents
type ListOptions struct {
	Status    models.DocumentStatus // filter by status, empty for all
	ProjectID string                // filter by project scope
	TaskID    string                // filter by task scope
	Limit     int
	Offset    int
}
