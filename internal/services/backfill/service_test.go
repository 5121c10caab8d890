package backfill

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
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

// stubEmbedder is a controllable EmbeddingService. The optional started and
// release channels let tests hold a call open mid-flight.
type stubEmbedder struct {
	vector    []float32
	err       error
	available bool
	calls     atomic.Int32
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (e *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.started != nil {
		e.once.Do(func() { close(e.started) })
	}
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *stubEmbedder) ModelName() string { return "stub-model" }
func (e *stubEmbedder) Dimension() int    { return testDimension }
func (e *stubEmbedder) IsAvailable() bool { return e.available }

type backfillHarness struct {
	service  *Service
	storage  interfaces.StorageManager
	embedder *stubEmbedder
}

func newBackfillHarness(t *testing.T, limit int) *backfillHarness {
	t.Helper()

	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "index"),
	}, testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	embedder := &stubEmbedder{vector: []float32{0.1, 0.2, 0.3}, available: true}

	return &backfillHarness{
		service:  NewService(storage, embedder, limit, 1, logger),
		storage:  storage,
		embedder: embedder,
	}
}

func (h *backfillHarness) seedDocument(t *testing.T, status models.DocumentStatus) *models.Document {
	t.Helper()
	doc := models.NewDocument("doc.txt", "txt", 100, models.Scope{})
	doc.Status = status
	require.NoError(t, h.storage.DocumentStorage().SaveDocument(doc))
	return doc
}

func (h *backfillHarness) seedChunk(t *testing.T, doc *models.Document, index int, vector []float32) *models.Chunk {
	t.Helper()
	chunk := models.NewChunk(doc.ID, index, fmt.Sprintf("chunk %d content", index), 4)
	require.NoError(t, h.storage.ChunkStorage().SaveChunk(chunk))
	if vector != nil {
		require.NoError(t, h.storage.VectorStorage().SaveVector(
			models.NewEmbeddingVector(chunk.ID, doc.ID, vector)))
	}
	return chunk
}

func TestRun_FillsOnlyMissingVectors(t *testing.T) {
	h := newBackfillHarness(t, 0)
	doc := h.seedDocument(t, models.DocumentStatusCompleted)

	missing0 := h.seedChunk(t, doc, 0, nil)
	existing := h.seedChunk(t, doc, 1, []float32{0.5, 0.5, 0.5})
	missing2 := h.seedChunk(t, doc, 2, nil)

	stats, err := h.service.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.DocumentsScanned)
	assert.Equal(t, 3, stats.ChunksScanned)
	assert.Equal(t, 2, stats.Embedded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int32(2), h.embedder.calls.Load())

	for _, chunk := range []*models.Chunk{missing0, missing2} {
		has, err := h.storage.VectorStorage().HasVector(chunk.ID)
		require.NoError(t, err)
		assert.True(t, has)
	}

	kept, err := h.storage.VectorStorage().GetVector(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, kept.Vector, "existing vector must not be touched")
}

func TestRun_RespectsLimit(t *testing.T) {
	h := newBackfillHarness(t, 2)
	doc := h.seedDocument(t, models.DocumentStatusCompleted)
	for i := 0; i < 5; i++ {
		h.seedChunk(t, doc, i, nil)
	}

	stats, err := h.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Embedded)
	assert.Equal(t, int32(2), h.embedder.calls.Load())

	count, err := h.storage.VectorStorage().CountVectors()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRun_SkipsUnfinishedDocuments(t *testing.T) {
	h := newBackfillHarness(t, 0)
	pending := h.seedDocument(t, models.DocumentStatusPending)
	failed := h.seedDocument(t, models.DocumentStatusFailed)
	h.seedChunk(t, pending, 0, nil)
	h.seedChunk(t, failed, 0, nil)

	stats, err := h.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsScanned)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, int32(0), h.embedder.calls.Load())
}

func TestRun_EmbeddingUnavailable(t *testing.T) {
	h := newBackfillHarness(t, 0)
	h.embedder.available = false

	stats, err := h.service.Run(context.Background())

	require.ErrorIs(t, err, interfaces.ErrEmbeddingUnavailable)
	assert.Nil(t, stats)
}

func TestRun_CountsFailures(t *testing.T) {
	h := newBackfillHarness(t, 0)
	h.embedder.err = errors.New("rate limited")
	doc := h.seedDocument(t, models.DocumentStatusCompleted)
	chunk0 := h.seedChunk(t, doc, 0, nil)
	h.seedChunk(t, doc, 1, nil)

	stats, err := h.service.Run(context.Background())

	require.NoError(t, err, "per-chunk failures never fail the sweep")
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, 2, stats.Failed)

	has, err := h.storage.VectorStorage().HasVector(chunk0.ID)
	require.NoError(t, err)
	assert.False(t, has)

	stored, err := h.storage.DocumentStorage().GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, stored.Status, "backfill never changes document status")
}

func TestRun_ConcurrentRunSkips(t *testing.T) {
	h := newBackfillHarness(t, 0)
	doc := h.seedDocument(t, models.DocumentStatusCompleted)
	h.seedChunk(t, doc, 0, nil)

	h.embedder.started = make(chan struct{})
	h.embedder.release = make(chan struct{})

	type result struct {
		stats *models.BackfillStats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := h.service.Run(context.Background())
		done <- result{stats, err}
	}()

	<-h.embedder.started
	assert.True(t, h.service.IsRunning())

	stats, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats, "second run should be skipped while the first is in flight")

	close(h.embedder.release)
	first := <-done
	require.NoError(t, first.err)
	require.NotNil(t, first.stats)
	assert.Equal(t, 1, first.stats.Embedded)
	assert.False(t, h.service.IsRunning())
}

func TestScheduler_RunNow(t *testing.T) {
	h := newBackfillHarness(t, 0)
	doc := h.seedDocument(t, models.DocumentStatusCompleted)
	h.seedChunk(t, doc, 0, nil)

	scheduler := NewScheduler(h.service, "", arbor.NewLogger())

	stats, err := scheduler.RunNow()

	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Embedded)
}

func TestScheduler_StartStop(t *testing.T) {
	h := newBackfillHarness(t, 0)
	scheduler := NewScheduler(h.service, "0 0 */6 * * *", arbor.NewLogger())

	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.IsRunning())

	assert.Error(t, scheduler.Start(), "double start should be rejected")

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
	scheduler.Stop() // repeat stop is a no-op
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	h := newBackfillHarness(t, 0)
	scheduler := NewScheduler(h.service, "not a cron expression", arbor.NewLogger())

	assert.Error(t, scheduler.Start())
	assert.False(t, scheduler.IsRunning())
}
