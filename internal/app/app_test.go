package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// newTestApp wires a full application against temp directories with the
// embedding provider disabled, so no test touches the network.
func newTestApp(t *testing.T) *App {
	t.Helper()

	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Embedding.Provider = "none"
	cfg.Storage.Badger.Path = filepath.Join(dir, "index")
	cfg.Storage.Files.DocumentsDir = filepath.Join(dir, "documents")

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, application.Close())
	})

	return application
}

func writeTextFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApp_IngestAndStatus(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	result := application.Ingest(ctx, writeTextFile(t, "release checklist for the v2 rollout"), models.Scope{ProjectID: "proj_1"})

	require.True(t, result.Success)
	require.NotEmpty(t, result.DocumentID)
	assert.Empty(t, result.Error)

	doc, err := application.Status(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "proj_1", doc.ProjectID)
	assert.Equal(t, 1, doc.ChunkCount)
}

func TestApp_IngestRejectionReportsError(t *testing.T) {
	application := newTestApp(t)

	path := filepath.Join(t.TempDir(), "binary.xyz")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01}, 0644))

	result := application.Ingest(context.Background(), path, models.Scope{})

	assert.False(t, result.Success)
	assert.Empty(t, result.DocumentID)
	assert.Contains(t, result.Error, "unsupported file format")
}

func TestApp_SearchWithoutProviderReturnsEmpty(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	result := application.Ingest(ctx, writeTextFile(t, "some indexed content"), models.Scope{})
	require.True(t, result.Success)

	results, err := application.Search(ctx, "indexed content", models.Scope{}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestApp_DeleteRemovesDocument(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	result := application.Ingest(ctx, writeTextFile(t, "to be removed"), models.Scope{})
	require.True(t, result.Success)

	require.NoError(t, application.Delete(ctx, result.DocumentID))

	_, err := application.Status(ctx, result.DocumentID)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestApp_ListReturnsIngestedDocuments(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	require.True(t, application.Ingest(ctx, writeTextFile(t, "first"), models.Scope{ProjectID: "proj_a"}).Success)
	require.True(t, application.Ingest(ctx, writeTextFile(t, "second"), models.Scope{ProjectID: "proj_b"}).Success)

	all, err := application.List(ctx, &interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := application.List(ctx, &interfaces.ListOptions{ProjectID: "proj_a"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "proj_a", scoped[0].ProjectID)
}

func TestApp_BackfillWithoutProviderFails(t *testing.T) {
	application := newTestApp(t)

	stats, err := application.Backfill(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrEmbeddingUnavailable)
	assert.Nil(t, stats)
}

func TestApp_StartSchedulerHonorsProcessingFlag(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		application := newTestApp(t)
		require.NoError(t, application.StartScheduler())
		assert.False(t, application.Scheduler.IsRunning())
	})

	t.Run("enabled", func(t *testing.T) {
		application := newTestApp(t)
		application.Config.Processing.Enabled = true

		require.NoError(t, application.StartScheduler())
		assert.True(t, application.Scheduler.IsRunning())
	})
}
