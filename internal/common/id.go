package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID with the "chk_" prefix
// Format: chk_<uuid>
func NewChunkID() string {
	return "chk_" + uuid.New().String()
}
