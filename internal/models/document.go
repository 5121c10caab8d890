package models

import (
	"time"

	"github.com/ternarybob/colligo/internal/common"
)

// DocumentStatus represents the processing state of an ingested document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is the metadata record for a single ingested file. The extracted
// text lives on the record itself; the original bytes live in file storage
// under the document's directory.
type Document struct {
	// Identity
	ID        string `json:"id"`                   // doc_{uuid}
	ProjectID string `json:"project_id,omitempty"` // optional retrieval scope
	TaskID    string `json:"task_id,omitempty"`    // optional retrieval scope

	// Source file
	Name     string `json:"name"`      // original filename
	FileType string `json:"file_type"` // normalized extension without dot, e.g. "pdf"
	FileSize int64  `json:"file_size"` // size in bytes

	// Processing state
	Status        DocumentStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	ChunkCount    int            `json:"chunk_count"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"` // set on terminal transition
}

// NewDocument creates a pending document record for a source file
func NewDocument(name, fileType string, fileSize int64, scope Scope) *Document {
	now := time.Now()
	return &Document{
		ID:        common.NewDocumentID(),
		ProjectID: scope.ProjectID,
		TaskID:    scope.TaskID,
		Name:      name,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing transitions the document to processing
func (d *Document) MarkProcessing() {
	d.Status = DocumentStatusProcessing
	d.UpdatedAt = time.Now()
}

// MarkCompleted transitions the document to completed with its extracted
// text and final chunk count. Completed is terminal; any prior error is cleared.
func (d *Document) MarkCompleted(extractedText string, chunkCount int) {
	now := time.Now()
	d.Status = DocumentStatusCompleted
	d.ExtractedText = extractedText
	d.ChunkCount = chunkCount
	d.Error = ""
	d.ProcessedAt = &now
	d.UpdatedAt = now
}

// MarkFailed transitions the document to failed with a human-readable
// reason. Failed is terminal.
func (d *Document) MarkFailed(errMsg string) {
	now := time.Now()
	d.Status = DocumentStatusFailed
	d.Error = errMsg
	d.ProcessedAt = &now
	d.UpdatedAt = now
}

// IsTerminal returns true when the document reached a final state
func (d *Document) IsTerminal() bool {
	return d.Status == DocumentStatusCompleted || d.Status == DocumentStatusFailed
}

// MatchesScope reports whether the document satisfies every populated scope
// field. Empty scope fields match everything.
func (d *Document) MatchesScope(scope Scope) bool {
	if scope.ProjectID != "" && d.ProjectID != scope.ProjectID {
		return false
	}
	if scope.TaskID != "" && d.TaskID != scope.TaskID {
		return false
	}
	return true
}
