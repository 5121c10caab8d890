// -----------------------------------------------------------------------
// Ingest Service - runs the document pipeline: validate the source file,
// store the original, extract text, chunk, embed, persist
// -----------------------------------------------------------------------

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/chunker"
	"github.com/ternarybob/colligo/internal/services/extract"
	"github.com/ternarybob/colligo/internal/services/workers"
)

// Service implements the ingestion pipeline
type Service struct {
	documents           interfaces.DocumentStorage
	chunks              interfaces.ChunkStorage
	vectors             interfaces.VectorStorage
	files               interfaces.FileStorage
	extractor           interfaces.ExtractorService
	embedder            interfaces.EmbeddingService
	chunker             *chunker.Chunker
	maxConcurrentEmbeds int
	logger              arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IngestService = (*Service)(nil)

// NewService creates the ingest service
func NewService(
	storage interfaces.StorageManager,
	files interfaces.FileStorage,
	extractor interfaces.ExtractorService,
	embedder interfaces.EmbeddingService,
	textChunker *chunker.Chunker,
	maxConcurrentEmbeds int,
	logger arbor.ILogger,
) *Service {
	if maxConcurrentEmbeds <= 0 {
		maxConcurrentEmbeds = 1
	}

	return &Service{
		documents:           storage.DocumentStorage(),
		chunks:              storage.ChunkStorage(),
		vectors:             storage.VectorStorage(),
		files:               files,
		extractor:           extractor,
		embedder:            embedder,
		chunker:             textChunker,
		maxConcurrentEmbeds: maxConcurrentEmbeds,
		logger:              logger,
	}
}

// Ingest processes a local file into a document record. Pre-checks fail
// before any record exists; once the record is created every failure lands
// in the document's terminal failed state and the record is returned
// alongside the error.
func (s *Service) Ingest(ctx context.Context, sourcePath string, scope models.Scope) (*models.Document, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path is a directory: %s", sourcePath)
	}
	if info.Size() > common.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d byte limit",
			interfaces.ErrFileTooLarge, info.Size(), common.MaxFileSize)
	}

	if format := extract.DetectFormat(sourcePath, ""); format == extract.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnsupportedFormat, filepath.Ext(sourcePath))
	}

	name := filepath.Base(sourcePath)
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(sourcePath)), ".")

	doc := models.NewDocument(name, fileType, info.Size(), scope)
	if err := s.documents.SaveDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("name", name).
		Str("file_type", fileType).
		Int64("size", info.Size()).
		Msg("Ingesting document")

	storedPath, err := s.files.Store(doc.ID, sourcePath, fileType)
	if err != nil {
		return s.fail(doc, fmt.Errorf("failed to store original file: %w", err))
	}

	doc.MarkProcessing()
	if err := s.documents.UpdateDocument(doc); err != nil {
		return s.fail(doc, fmt.Errorf("failed to update document status: %w", err))
	}

	text, err := s.extractor.ExtractFile(ctx, storedPath, "")
	if err != nil {
		return s.fail(doc, fmt.Errorf("text extraction failed: %w", err))
	}

	// A readable file with nothing to index still completes, it just
	// produces no chunks
	if strings.TrimSpace(text) == "" {
		doc.MarkCompleted("", 0)
		if err := s.documents.UpdateDocument(doc); err != nil {
			return doc, fmt.Errorf("failed to finalize document: %w", err)
		}
		s.logger.Info().
			Str("document_id", doc.ID).
			Msg("Document completed with no extractable text")
		return doc, nil
	}

	passages := s.chunker.Chunk(text)
	chunks := make([]*models.Chunk, 0, len(passages))
	for _, passage := range passages {
		chunks = append(chunks, models.NewChunk(doc.ID, passage.Index, passage.Text, passage.TokenCount))
	}

	if err := s.chunks.SaveChunks(chunks); err != nil {
		return s.fail(doc, fmt.Errorf("failed to save chunks: %w", err))
	}

	s.embedChunks(ctx, doc.ID, chunks)

	doc.MarkCompleted(text, len(chunks))
	if err := s.documents.UpdateDocument(doc); err != nil {
		return doc, fmt.Errorf("failed to finalize document: %w", err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Int("chunks", len(chunks)).
		Msg("Document ingested")

	return doc, nil
}

// Status returns the document record for an ID
func (s *Service) Status(ctx context.Context, documentID string) (*models.Document, error) {
	return s.documents.GetDocument(documentID)
}

// Delete removes a document and everything derived from it. Derived data
// goes first so an interrupted delete never leaves orphaned chunks or
// vectors behind a missing record. Deleting an unknown ID is a no-op.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if err := s.chunks.DeleteChunksByDocument(documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := s.vectors.DeleteVectorsByDocument(documentID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := s.files.Delete(documentID); err != nil {
		return fmt.Errorf("failed to delete stored files: %w", err)
	}
	if err := s.documents.DeleteDocument(documentID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	s.logger.Info().
		Str("document_id", documentID).
		Msg("Document deleted")

	return nil
}

// List returns document records matching the options
func (s *Service) List(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return s.documents.ListDocuments(opts)
}

// embedChunks generates and stores a vector per chunk. Failures never fail
// the document: a chunk whose embedding cannot be generated stays stored
// without a vector and is picked up by a later backfill run.
func (s *Service) embedChunks(ctx context.Context, documentID string, chunks []*models.Chunk) {
	if !s.embedder.IsAvailable() {
		s.logger.Warn().
			Str("document_id", documentID).
			Int("chunks", len(chunks)).
			Msg("Embedding unavailable, chunks stored without vectors")
		return
	}

	pool := workers.NewPool(s.maxConcurrentEmbeds, s.logger)
	pool.Start()

	for _, chunk := range chunks {
		chunk := chunk
		if err := pool.Submit(func(_ context.Context) error {
			s.embedChunk(ctx, documentID, chunk)
			return nil
		}); err != nil {
			s.logger.Warn().
				Err(err).
				Str("chunk_id", chunk.ID).
				Msg("Failed to queue chunk for embedding")
		}
	}

	pool.Wait()
}

func (s *Service) embedChunk(ctx context.Context, documentID string, chunk *models.Chunk) {
	vector, err := s.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("chunk_id", chunk.ID).
			Int("chunk_index", chunk.Index).
			Msg("Embedding failed, chunk stored without vector")
		return
	}

	if err := s.vectors.SaveVector(models.NewEmbeddingVector(chunk.ID, documentID, vector)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("chunk_id", chunk.ID).
			Msg("Failed to save vector, chunk stored without vector")
	}
}

// fail records the terminal failed state and hands back the document with
// the original cause
func (s *Service) fail(doc *models.Document, cause error) (*models.Document, error) {
	doc.MarkFailed(cause.Error())
	if err := s.documents.UpdateDocument(doc); err != nil {
		s.logger.Error().
			Err(err).
			Str("document_id", doc.ID).
			Msg("Failed to record failure state")
	}

	s.logger.Warn().
		Str("document_id", doc.ID).
		Str("error", cause.Error()).
		Msg("Document ingestion failed")

	return doc, cause
}
