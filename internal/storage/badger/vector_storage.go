package badger

import (
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// VectorStorage implements the VectorStorage interface for Badger. Vectors
// are keyed by chunk ID; similarity search is a brute-force scan, which is
// the right trade-off for a local store holding thousands of vectors, not
// millions.
type VectorStorage struct {
	db        *BadgerDB
	dimension int
	logger    arbor.ILogger
}

// NewVectorStorage creates a new VectorStorage instance. All stored vectors
// must have the given dimension.
func NewVectorStorage(db *BadgerDB, dimension int, logger arbor.ILogger) interfaces.VectorStorage {
	return &VectorStorage{
		db:        db,
		dimension: dimension,
		logger:    logger,
	}
}

func (s *VectorStorage) SaveVector(vector *models.EmbeddingVector) error {
	if vector.ChunkID == "" {
		return fmt.Errorf("vector chunk ID is required")
	}
	if vector.DocumentID == "" {
		return fmt.Errorf("vector document ID is required")
	}
	if len(vector.Vector) != s.dimension {
		return fmt.Errorf("%w: got %d dimensions, store expects %d",
			interfaces.ErrDimensionMismatch, len(vector.Vector), s.dimension)
	}

	if err := s.db.Store().Upsert(vector.ChunkID, vector); err != nil {
		return fmt.Errorf("failed to save vector: %w", err)
	}
	return nil
}

func (s *VectorStorage) GetVector(chunkID string) (*models.EmbeddingVector, error) {
	var vector models.EmbeddingVector
	if err := s.db.Store().Get(chunkID, &vector); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrVectorNotFound, chunkID)
		}
		return nil, fmt.Errorf("failed to get vector: %w", err)
	}
	return &vector, nil
}

func (s *VectorStorage) HasVector(chunkID string) (bool, error) {
	var vector models.EmbeddingVector
	if err := s.db.Store().Get(chunkID, &vector); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check vector: %w", err)
	}
	return true, nil
}

func (s *VectorStorage) DeleteVector(chunkID string) error {
	if err := s.db.Store().Delete(chunkID, &models.EmbeddingVector{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	return nil
}

func (s *VectorStorage) DeleteVectorsByDocument(documentID string) error {
	if err := s.db.Store().DeleteMatching(&models.EmbeddingVector{}, badgerhold.Where("DocumentID").Eq(documentID)); err != nil {
		return fmt.Errorf("failed to delete vectors for document: %w", err)
	}
	return nil
}

// SearchSimilar returns up to limit matches ordered by ascending Euclidean
// distance. Only chunks of completed documents matching the scope are
// candidates; equal distances break ties by chunk ID so results are stable.
func (s *VectorStorage) SearchSimilar(queryVector []float32, limit int, scope models.Scope) ([]models.VectorMatch, error) {
	if limit <= 0 {
		return nil, interfaces.ErrInvalidLimit
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			interfaces.ErrDimensionMismatch, len(queryVector), s.dimension)
	}

	// Candidate documents: completed and inside the scope
	docQuery := badgerhold.Where("Status").Eq(models.DocumentStatusCompleted)
	if scope.ProjectID != "" {
		docQuery = docQuery.And("ProjectID").Eq(scope.ProjectID)
	}
	if scope.TaskID != "" {
		docQuery = docQuery.And("TaskID").Eq(scope.TaskID)
	}

	var docs []models.Document
	if err := s.db.Store().Find(&docs, docQuery); err != nil {
		return nil, fmt.Errorf("failed to load candidate documents: %w", err)
	}
	if len(docs) == 0 {
		return []models.VectorMatch{}, nil
	}

	allowed := make(map[string]bool, len(docs))
	for i := range docs {
		allowed[docs[i].ID] = true
	}

	var vectors []models.EmbeddingVector
	if err := s.db.Store().Find(&vectors, badgerhold.Where("ChunkID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to scan vectors: %w", err)
	}

	matches := make([]models.VectorMatch, 0, len(vectors))
	for i := range vectors {
		v := &vectors[i]
		if !allowed[v.DocumentID] {
			continue
		}
		if len(v.Vector) != len(queryVector) {
			continue
		}
		matches = append(matches, models.VectorMatch{
			ChunkID:    v.ChunkID,
			DocumentID: v.DocumentID,
			Distance:   euclideanDistance(queryVector, v.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *VectorStorage) CountVectors() (int, error) {
	count, err := s.db.Store().Count(&models.EmbeddingVector{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return int(count), nil
}

// Dimension returns the vector dimension this store enforces
func (s *VectorStorage) Dimension() int {
	return s.dimension
}

// euclideanDistance computes the L2 distance between two vectors of equal
// length, accumulating in float64 to limit rounding error
func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
