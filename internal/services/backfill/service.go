// -----------------------------------------------------------------------
// Backfill Sweeper - re-attempts embedding for chunks left without vectors
// by earlier provider failures. Documents stay completed; only missing
// vectors are filled in.
// -----------------------------------------------------------------------

package backfill

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/workers"
)

// Service scans completed documents for chunks without vectors and
// re-attempts their embedding in bounded batches
type Service struct {
	store               interfaces.StorageManager
	documents           interfaces.DocumentStorage
	chunks              interfaces.ChunkStorage
	vectors             interfaces.VectorStorage
	embedder            interfaces.EmbeddingService
	limit               int
	maxConcurrentEmbeds int
	logger              arbor.ILogger

	mu        sync.Mutex
	isRunning bool
}

// NewService creates the backfill service. Limit bounds the embeds
// attempted per run; zero means unbounded.
func NewService(
	storage interfaces.StorageManager,
	embedder interfaces.EmbeddingService,
	limit int,
	maxConcurrentEmbeds int,
	logger arbor.ILogger,
) *Service {
	if maxConcurrentEmbeds <= 0 {
		maxConcurrentEmbeds = 1
	}

	return &Service{
		store:               storage,
		documents:           storage.DocumentStorage(),
		chunks:              storage.ChunkStorage(),
		vectors:             storage.VectorStorage(),
		embedder:            embedder,
		limit:               limit,
		maxConcurrentEmbeds: maxConcurrentEmbeds,
		logger:              logger,
	}
}

// Run executes one backfill sweep and reports what it did. A sweep already
// in flight makes Run a no-op returning nil stats.
func (s *Service) Run(ctx context.Context) (*models.BackfillStats, error) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Backfill already in progress, skipping run")
		return nil, nil
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	if !s.embedder.IsAvailable() {
		return nil, interfaces.ErrEmbeddingUnavailable
	}

	stats := &models.BackfillStats{StartTime: time.Now()}

	docs, err := s.documents.ListDocuments(&interfaces.ListOptions{
		Status: models.DocumentStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed documents: %w", err)
	}

	pending := s.collectPending(docs, stats)

	if len(pending) > 0 {
		var embedded, failed atomic.Int64

		pool := workers.NewPool(s.maxConcurrentEmbeds, s.logger)
		pool.Start()

		for _, chunk := range pending {
			chunk := chunk
			if err := pool.Submit(func(_ context.Context) error {
				if s.embedChunk(ctx, chunk) {
					embedded.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			}); err != nil {
				failed.Add(1)
			}
		}

		pool.Wait()

		stats.Embedded = int(embedded.Load())
		stats.Failed = int(failed.Load())
	}

	// Sweeps are the only recurring write path in a long-running daemon,
	// so disk reclamation rides along with them
	if err := s.store.RunGC(); err != nil {
		s.logger.Warn().Err(err).Msg("Storage GC after sweep failed")
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	s.logger.Info().
		Int("documents_scanned", stats.DocumentsScanned).
		Int("chunks_scanned", stats.ChunksScanned).
		Int("embedded", stats.Embedded).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("Backfill sweep completed")

	return stats, nil
}

// IsRunning reports whether a sweep is currently in flight
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// collectPending gathers chunks without vectors, stopping at the batch limit
func (s *Service) collectPending(docs []*models.Document, stats *models.BackfillStats) []*models.Chunk {
	var pending []*models.Chunk

scan:
	for _, doc := range docs {
		stats.DocumentsScanned++

		chunks, err := s.chunks.GetChunksByDocument(doc.ID)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("document_id", doc.ID).
				Msg("Failed to load chunks, skipping document")
			continue
		}

		for _, chunk := range chunks {
			stats.ChunksScanned++

			has, err := s.vectors.HasVector(chunk.ID)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("chunk_id", chunk.ID).
					Msg("Failed to check vector, skipping chunk")
				continue
			}
			if has {
				continue
			}

			pending = append(pending, chunk)
			if s.limit > 0 && len(pending) >= s.limit {
				s.logger.Debug().
					Int("limit", s.limit).
					Msg("Backfill batch limit reached")
				break scan
			}
		}
	}

	return pending
}

func (s *Service) embedChunk(ctx context.Context, chunk *models.Chunk) bool {
	vector, err := s.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("chunk_id", chunk.ID).
			Msg("Backfill embedding failed")
		return false
	}

	if err := s.vectors.SaveVector(models.NewEmbeddingVector(chunk.ID, chunk.DocumentID, vector)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("chunk_id", chunk.ID).
			Msg("Failed to save backfilled vector")
		return false
	}

	return true
}
