package models

import "time"

// Scope narrows ingestion and retrieval to a project and/or task. Empty
// fields are wildcards; populated fields must all match (conjunctive).
type Scope struct {
	ProjectID string `json:"project_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

// IsZero returns true when no scope field is populated
func (s Scope) IsZero() bool {
	return s.ProjectID == "" && s.TaskID == ""
}

// SearchResult is one retrieval hit: a chunk plus its owning document and
// similarity scoring. Relevance is 1 - Distance, so identical vectors score
// 1.0 and scores can go negative for distant matches.
type SearchResult struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkID      string  `json:"chunk_id"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Distance     float64 `json:"distance"`
	Relevance    float64 `json:"relevance"`
}

// IngestResult is the caller-facing outcome of an ingestion request.
// Failures during processing still carry the document ID so the caller can
// inspect the failed record.
type IngestResult struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BackfillStats summarizes one embedding backfill run
type BackfillStats struct {
	DocumentsScanned int           `json:"documents_scanned"`
	ChunksScanned    int           `json:"chunks_scanned"`
	Embedded         int           `json:"embedded"`
	Failed           int           `json:"failed"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
}
