package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/chunker"
	"github.com/ternarybob/colligo/internal/services/extract"
	"github.com/ternarybob/colligo/internal/storage/badger"
	filestore "github.com/ternarybob/colligo/internal/storage/files"
)

const testDimension = 3

// stubEmbedder is a controllable EmbeddingService for pipeline tests
type stubEmbedder struct {
	available bool
	err       error
	calls     atomic.Int32
}

func (e *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *stubEmbedder) ModelName() string { return "stub-model" }
func (e *stubEmbedder) Dimension() int    { return testDimension }
func (e *stubEmbedder) IsAvailable() bool { return e.available }

type testHarness struct {
	service  *Service
	storage  interfaces.StorageManager
	files    interfaces.FileStorage
	embedder *stubEmbedder
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := arbor.NewLogger()
	dir := t.TempDir()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(dir, "index"),
	}, testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	files, err := filestore.NewStore(filepath.Join(dir, "documents"), logger)
	require.NoError(t, err)

	embedder := &stubEmbedder{available: true}
	extractor := extract.NewService(nil, 0, logger)
	textChunker := chunker.New(chunker.WithChunkTokens(50), chunker.WithOverlapTokens(0))

	service := NewService(storage, files, extractor, embedder, textChunker, 2, logger)

	return &testHarness{
		service:  service,
		storage:  storage,
		files:    files,
		embedder: embedder,
	}
}

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_TextFileCompleted(t *testing.T) {
	h := newTestHarness(t)
	path := writeSourceFile(t, "notes.txt", "alpha beta gamma delta.\n\nepsilon zeta eta theta.")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{ProjectID: "proj-1"})

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, "proj-1", doc.ProjectID)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Contains(t, doc.ExtractedText, "alpha beta")
	assert.Empty(t, doc.Error)
	require.NotNil(t, doc.ProcessedAt)

	chunks, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, doc.ID, chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)

	hasVector, err := h.storage.VectorStorage().HasVector(chunks[0].ID)
	require.NoError(t, err)
	assert.True(t, hasVector)
	assert.Equal(t, int32(1), h.embedder.calls.Load())

	storedPath := filepath.Join(h.files.DocumentDir(doc.ID), "original.txt")
	_, err = os.Stat(storedPath)
	assert.NoError(t, err, "original file should be stored in the document directory")
}

func TestIngest_EmptyFileCompletesWithoutChunks(t *testing.T) {
	h := newTestHarness(t)
	path := writeSourceFile(t, "empty.txt", "   \n\n  ")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, 0, doc.ChunkCount)
	assert.Empty(t, doc.ExtractedText)

	chunks, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, int32(0), h.embedder.calls.Load())
}

func TestIngest_UnsupportedFormatRejectedBeforeRecord(t *testing.T) {
	h := newTestHarness(t)
	path := writeSourceFile(t, "data.xyz", "binary payload")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.ErrorIs(t, err, interfaces.ErrUnsupportedFormat)
	assert.Nil(t, doc)

	count, err := h.storage.DocumentStorage().CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no record should exist for a rejected file")
}

func TestIngest_OversizeRejectedBeforeRecord(t *testing.T) {
	h := newTestHarness(t)

	path := filepath.Join(t.TempDir(), "big.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(common.MaxFileSize+1))
	require.NoError(t, f.Close())

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.ErrorIs(t, err, interfaces.ErrFileTooLarge)
	assert.Nil(t, doc)

	count, err := h.storage.DocumentStorage().CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIngest_EmbeddingOutageDegrades(t *testing.T) {
	h := newTestHarness(t)
	h.embedder.available = false
	path := writeSourceFile(t, "notes.txt", "alpha beta gamma delta epsilon.")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.ChunkCount)

	chunks, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	hasVector, err := h.storage.VectorStorage().HasVector(chunks[0].ID)
	require.NoError(t, err)
	assert.False(t, hasVector, "chunk should be stored without a vector")
	assert.Equal(t, int32(0), h.embedder.calls.Load())
}

func TestIngest_EmbedFailureKeepsChunk(t *testing.T) {
	h := newTestHarness(t)
	h.embedder.err = errors.New("rate limited")
	path := writeSourceFile(t, "notes.txt", "alpha beta gamma delta epsilon.")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.NoError(t, err, "embedding failure must not fail the document")
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)

	chunks, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	hasVector, err := h.storage.VectorStorage().HasVector(chunks[0].ID)
	require.NoError(t, err)
	assert.False(t, hasVector)
}

func TestIngest_ExtractionFailureMarksFailed(t *testing.T) {
	h := newTestHarness(t)
	path := writeSourceFile(t, "broken.pdf", "this is not a pdf")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})

	require.Error(t, err)
	require.NotNil(t, doc, "post-record failures still return the document")
	assert.Equal(t, models.DocumentStatusFailed, doc.Status)
	assert.NotEmpty(t, doc.Error)
	require.NotNil(t, doc.ProcessedAt)

	stored, getErr := h.service.Status(context.Background(), doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
}

func TestDelete_CascadesAndIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	path := writeSourceFile(t, "notes.txt", "alpha beta gamma delta epsilon.")

	doc, err := h.service.Ingest(context.Background(), path, models.Scope{})
	require.NoError(t, err)

	chunks, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	docDir := h.files.DocumentDir(doc.ID)

	require.NoError(t, h.service.Delete(context.Background(), doc.ID))

	_, err = h.service.Status(context.Background(), doc.ID)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	remaining, err := h.storage.ChunkStorage().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	hasVector, err := h.storage.VectorStorage().HasVector(chunks[0].ID)
	require.NoError(t, err)
	assert.False(t, hasVector)

	_, err = os.Stat(docDir)
	assert.True(t, os.IsNotExist(err), "document directory should be removed")

	assert.NoError(t, h.service.Delete(context.Background(), doc.ID), "repeat delete is a no-op")
}

func TestStatus_UnknownDocument(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.Status(context.Background(), "doc_missing")

	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestList_FiltersByProject(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.service.Ingest(context.Background(),
		writeSourceFile(t, "one.txt", "first document body."), models.Scope{ProjectID: "proj-a"})
	require.NoError(t, err)
	_, err = h.service.Ingest(context.Background(),
		writeSourceFile(t, "two.txt", "second document body."), models.Scope{ProjectID: "proj-b"})
	require.NoError(t, err)

	docs, err := h.service.List(context.Background(), &interfaces.ListOptions{ProjectID: "proj-a"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one.txt", docs[0].Name)

	all, err := h.service.List(context.Background(), &interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
