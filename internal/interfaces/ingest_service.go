package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// IngestService runs the ingestion pipeline: validate, store the original
// file, extract text, chunk, embed, persist.
type IngestService interface {
	// Ingest processes a local file into a document record. Pre-checks
	// (size ceiling, format support) fail before any record exists; once a
	// record is created every failure lands in the document's terminal
	// state, so a non-nil document is returned alongside the error.
	Ingest(ctx context.Context, sourcePath string, scope models.Scope) (*models.Document, error)

	// Status returns the document record for an ID
	Status(ctx context.Context, documentID string) (*models.Document, error)

	// Delete removes a document and everything derived from it: chunks,
	// vectors, stored files, metadata. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, documentID string) error

	// List returns document records matching the options
	List(ctx context.Context, opts *ListOptions) ([]*models.Document, error)
}
