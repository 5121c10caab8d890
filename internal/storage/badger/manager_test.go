package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

func TestManager_ProvidesStores(t *testing.T) {
	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "index")}

	manager, err := NewManager(arbor.NewLogger(), cfg, 3)
	require.NoError(t, err)
	defer manager.Close()

	require.NotNil(t, manager.DocumentStorage())
	require.NotNil(t, manager.ChunkStorage())
	require.NotNil(t, manager.VectorStorage())
	require.NotNil(t, manager.DB())

	doc := models.NewDocument("report.pdf", "pdf", 1024, models.Scope{})
	require.NoError(t, manager.DocumentStorage().SaveDocument(doc))

	loaded, err := manager.DocumentStorage().GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, loaded.ID)
}

func TestManager_RunGCOnQuietStore(t *testing.T) {
	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "index")}

	manager, err := NewManager(arbor.NewLogger(), cfg, 3)
	require.NoError(t, err)
	defer manager.Close()

	// A store with nothing to reclaim must not report an error
	assert.NoError(t, manager.RunGC())
}

func TestManager_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path}, 3)
	require.NoError(t, err)

	doc := models.NewDocument("persisted.txt", "txt", 10, models.Scope{})
	require.NoError(t, manager.DocumentStorage().SaveDocument(doc))
	require.NoError(t, manager.Close())

	// Reopening with reset wipes prior records
	manager, err = NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true}, 3)
	require.NoError(t, err)
	defer manager.Close()

	count, err := manager.DocumentStorage().CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
