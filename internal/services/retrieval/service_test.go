package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

const testDimension = 3

// stubEmbedder returns a fixed query vector
type stubEmbedder struct {
	vector    []float32
	err       error
	available bool
}

func (e *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !e.available {
		return nil, interfaces.ErrEmbeddingUnavailable
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *stubEmbedder) ModelName() string { return "stub-model" }
func (e *stubEmbedder) Dimension() int    { return testDimension }
func (e *stubEmbedder) IsAvailable() bool { return e.available }

type searchHarness struct {
	service  *Service
	storage  interfaces.StorageManager
	embedder *stubEmbedder
}

func newSearchHarness(t *testing.T) *searchHarness {
	t.Helper()

	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "index"),
	}, testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	embedder := &stubEmbedder{vector: []float32{1, 0, 0}, available: true}

	return &searchHarness{
		service:  NewService(storage, embedder, logger),
		storage:  storage,
		embedder: embedder,
	}
}

func (h *searchHarness) seedDocument(t *testing.T, name, projectID string, status models.DocumentStatus) *models.Document {
	t.Helper()
	doc := models.NewDocument(name, "txt", 100, models.Scope{ProjectID: projectID})
	doc.Status = status
	require.NoError(t, h.storage.DocumentStorage().SaveDocument(doc))
	return doc
}

func (h *searchHarness) seedChunk(t *testing.T, doc *models.Document, index int, content string, vector []float32) *models.Chunk {
	t.Helper()
	chunk := models.NewChunk(doc.ID, index, content, len(content)/4)
	require.NoError(t, h.storage.ChunkStorage().SaveChunk(chunk))
	if vector != nil {
		require.NoError(t, h.storage.VectorStorage().SaveVector(
			models.NewEmbeddingVector(chunk.ID, doc.ID, vector)))
	}
	return chunk
}

func TestSearch_OrdersByDistance(t *testing.T) {
	h := newSearchHarness(t)
	docA := h.seedDocument(t, "a.txt", "proj-a", models.DocumentStatusCompleted)
	docB := h.seedDocument(t, "b.txt", "proj-b", models.DocumentStatusCompleted)

	h.seedChunk(t, docA, 0, "exact match content", []float32{1, 0, 0})
	h.seedChunk(t, docA, 1, "distant content", []float32{0, 1, 0})
	h.seedChunk(t, docB, 0, "near match content", []float32{0.9, 0, 0})

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 10)

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact match content", results[0].Content)
	assert.Equal(t, "a.txt", results[0].DocumentName)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-6)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-6)

	assert.Equal(t, "near match content", results[1].Content)
	assert.InDelta(t, 0.1, results[1].Distance, 1e-6)
	assert.InDelta(t, 0.9, results[1].Relevance, 1e-6)

	assert.Equal(t, "distant content", results[2].Content)
}

func TestSearch_ScopeFilters(t *testing.T) {
	h := newSearchHarness(t)
	docA := h.seedDocument(t, "a.txt", "proj-a", models.DocumentStatusCompleted)
	docB := h.seedDocument(t, "b.txt", "proj-b", models.DocumentStatusCompleted)

	h.seedChunk(t, docA, 0, "scoped content", []float32{0, 1, 0})
	h.seedChunk(t, docB, 0, "other project content", []float32{1, 0, 0})

	results, err := h.service.Search(context.Background(), "query", models.Scope{ProjectID: "proj-a"}, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docA.ID, results[0].DocumentID)
	assert.Equal(t, "scoped content", results[0].Content)
}

func TestSearch_ExcludesUnfinishedDocuments(t *testing.T) {
	h := newSearchHarness(t)
	pending := h.seedDocument(t, "pending.txt", "proj-a", models.DocumentStatusPending)
	failed := h.seedDocument(t, "failed.txt", "proj-a", models.DocumentStatusFailed)
	completed := h.seedDocument(t, "done.txt", "proj-a", models.DocumentStatusCompleted)

	h.seedChunk(t, pending, 0, "pending content", []float32{1, 0, 0})
	h.seedChunk(t, failed, 0, "failed content", []float32{1, 0, 0})
	h.seedChunk(t, completed, 0, "completed content", []float32{0, 1, 0})

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "completed content", results[0].Content)
}

func TestSearch_ZeroLimitUsesDefault(t *testing.T) {
	h := newSearchHarness(t)
	doc := h.seedDocument(t, "a.txt", "", models.DocumentStatusCompleted)

	vectors := [][]float32{
		{1, 0, 0},
		{0.8, 0, 0},
		{0.6, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	for i, v := range vectors {
		h.seedChunk(t, doc, i, "content", v)
	}

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 0)

	require.NoError(t, err)
	assert.Len(t, results, defaultLimit)
}

func TestSearch_EmptyQuery(t *testing.T) {
	h := newSearchHarness(t)

	for _, query := range []string{"", "   ", "\n\t"} {
		_, err := h.service.Search(context.Background(), query, models.Scope{}, 5)
		assert.ErrorIs(t, err, interfaces.ErrEmptyQuery)
	}
}

func TestSearch_NegativeLimit(t *testing.T) {
	h := newSearchHarness(t)

	_, err := h.service.Search(context.Background(), "query", models.Scope{}, -1)

	assert.ErrorIs(t, err, interfaces.ErrInvalidLimit)
}

func TestSearch_EmbedderUnavailableReturnsEmpty(t *testing.T) {
	h := newSearchHarness(t)
	doc := h.seedDocument(t, "a.txt", "", models.DocumentStatusCompleted)
	h.seedChunk(t, doc, 0, "content", []float32{1, 0, 0})
	h.embedder.available = false

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 5)

	require.NoError(t, err, "provider outage should degrade, not error")
	assert.Empty(t, results)
}

func TestSearch_EmbedFailureReturnsEmpty(t *testing.T) {
	h := newSearchHarness(t)
	doc := h.seedDocument(t, "a.txt", "", models.DocumentStatusCompleted)
	h.seedChunk(t, doc, 0, "content", []float32{1, 0, 0})
	h.embedder.err = errors.New("rate limited")

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_SkipsVanishedChunks(t *testing.T) {
	h := newSearchHarness(t)
	doc := h.seedDocument(t, "a.txt", "", models.DocumentStatusCompleted)
	kept := h.seedChunk(t, doc, 0, "kept content", []float32{0, 1, 0})

	// A vector whose chunk record is gone, as after a partial delete
	require.NoError(t, h.storage.VectorStorage().SaveVector(
		models.NewEmbeddingVector("chk_orphaned", doc.ID, []float32{1, 0, 0})))

	results, err := h.service.Search(context.Background(), "query", models.Scope{}, 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].ChunkID)
}
