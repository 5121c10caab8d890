package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChunkStorage implements the ChunkStorage interface for Badger
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChunkStorage) SaveChunk(chunk *models.Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}
	if chunk.DocumentID == "" {
		return fmt.Errorf("chunk document ID is required")
	}

	if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
		return fmt.Errorf("failed to save chunk: %w", err)
	}
	return nil
}

func (s *ChunkStorage) SaveChunks(chunks []*models.Chunk) error {
	for _, chunk := range chunks {
		if err := s.SaveChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChunkStorage) GetChunk(id string) (*models.Chunk, error) {
	var chunk models.Chunk
	if err := s.db.Store().Get(id, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrChunkNotFound, id)
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

// GetChunksByDocument returns a document's chunks ordered by Index
func (s *ChunkStorage) GetChunksByDocument(documentID string) ([]*models.Chunk, error) {
	var chunks []models.Chunk
	query := badgerhold.Where("DocumentID").Eq(documentID).SortBy("Index")
	if err := s.db.Store().Find(&chunks, query); err != nil {
		return nil, fmt.Errorf("failed to get chunks for document: %w", err)
	}

	result := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *ChunkStorage) CountChunksByDocument(documentID string) (int, error) {
	count, err := s.db.Store().Count(&models.Chunk{}, badgerhold.Where("DocumentID").Eq(documentID))
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

// DeleteChunksByDocument removes all chunks owned by a document. Deleting
// chunks for an unknown document is a no-op.
func (s *ChunkStorage) DeleteChunksByDocument(documentID string) error {
	if err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("DocumentID").Eq(documentID)); err != nil {
		return fmt.Errorf("failed to delete chunks for document: %w", err)
	}
	return nil
}
