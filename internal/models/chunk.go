package models

import (
	"time"

	"github.com/ternarybob/colligo/internal/common"
)

// Chunk is one retrieval passage cut from a document's extracted text.
// Chunks are ordered within their document by Index.
type Chunk struct {
	ID         string    `json:"id"`          // chk_{uuid}
	DocumentID string    `json:"document_id"` // owning document
	Index      int       `json:"index"`       // zero-based position within the document
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"` // estimated tokens in Content
	CreatedAt  time.Time `json:"created_at"`
}

// NewChunk creates a chunk record owned by the given document
func NewChunk(documentID string, index int, content string, tokenCount int) *Chunk {
	return &Chunk{
		ID:         common.NewChunkID(),
		DocumentID: documentID,
		Index:      index,
		Content:    content,
		TokenCount: tokenCount,
		CreatedAt:  time.Now(),
	}
}
