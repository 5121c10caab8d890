// -----------------------------------------------------------------------
// Retrieval Service - embeds a query and returns the closest chunks from
// completed documents within scope
// -----------------------------------------------------------------------

package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// defaultLimit is used when the caller passes limit zero
const defaultLimit = 3

// Service implements semantic search over stored chunks
type Service struct {
	documents interfaces.DocumentStorage
	chunks    interfaces.ChunkStorage
	vectors   interfaces.VectorStorage
	embedder  interfaces.EmbeddingService
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.SearchService = (*Service)(nil)

// NewService creates the retrieval service
func NewService(storage interfaces.StorageManager, embedder interfaces.EmbeddingService, logger arbor.ILogger) *Service {
	return &Service{
		documents: storage.DocumentStorage(),
		chunks:    storage.ChunkStorage(),
		vectors:   storage.VectorStorage(),
		embedder:  embedder,
		logger:    logger,
	}
}

// Search embeds the query and returns up to limit results ordered by
// ascending distance. A zero limit falls back to the default; an
// unavailable or failing embedding provider degrades to empty results
// rather than an error, since the caller cannot act on a provider outage.
func (s *Service) Search(ctx context.Context, query string, scope models.Scope, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, interfaces.ErrEmptyQuery
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrInvalidLimit, limit)
	}
	if limit == 0 {
		limit = defaultLimit
	}

	start := time.Now()

	queryVector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("Query embedding failed, returning no results")
		return []models.SearchResult{}, nil
	}

	matches, err := s.vectors.SearchSimilar(queryVector, limit, scope)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, match := range matches {
		result, ok := s.resolveMatch(match)
		if !ok {
			continue
		}
		results = append(results, result)
	}

	s.logger.Debug().
		Str("project_id", scope.ProjectID).
		Str("task_id", scope.TaskID).
		Int("limit", limit).
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Search completed")

	return results, nil
}

// resolveMatch joins a vector match with its chunk and document records.
// Records deleted since the vector scan are skipped, not errors.
func (s *Service) resolveMatch(match models.VectorMatch) (models.SearchResult, bool) {
	chunk, err := s.chunks.GetChunk(match.ChunkID)
	if err != nil {
		s.logger.Debug().
			Str("chunk_id", match.ChunkID).
			Msg("Skipping match, chunk no longer exists")
		return models.SearchResult{}, false
	}

	doc, err := s.documents.GetDocument(match.DocumentID)
	if err != nil {
		s.logger.Debug().
			Str("document_id", match.DocumentID).
			Msg("Skipping match, document no longer exists")
		return models.SearchResult{}, false
	}

	return models.SearchResult{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		ChunkID:      chunk.ID,
		ChunkIndex:   chunk.Index,
		Content:      chunk.Content,
		Distance:     match.Distance,
		Relevance:    1 - match.Distance,
	}, true
}
