package models

import "time"

// EmbeddingVector stores the embedding for a single chunk. It is keyed by
// chunk ID (at most one vector per chunk) and carries the owning document
// ID so scope filters never need a chunk lookup.
type EmbeddingVector struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Vector     []float32 `json:"vector"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEmbeddingVector creates a vector record for a chunk
func NewEmbeddingVector(chunkID, documentID string, vector []float32) *EmbeddingVector {
	return &EmbeddingVector{
		ChunkID:    chunkID,
		DocumentID: documentID,
		Vector:     vector,
		CreatedAt:  time.Now(),
	}
}

// VectorMatch is a similarity hit returned by the vector store, ordered by
// ascending distance (smaller is closer).
type VectorMatch struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Distance   float64 `json:"distance"` // Euclidean (L2) distance to the query vector
}
