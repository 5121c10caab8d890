// -----------------------------------------------------------------------
// Application wiring - builds the storage and service graph from config
// and exposes ingestion, retrieval and maintenance entry points
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/backfill"
	"github.com/ternarybob/colligo/internal/services/chunker"
	"github.com/ternarybob/colligo/internal/services/embeddings"
	"github.com/ternarybob/colligo/internal/services/extract"
	"github.com/ternarybob/colligo/internal/services/ingest"
	"github.com/ternarybob/colligo/internal/services/retrieval"
	"github.com/ternarybob/colligo/internal/storage"
	"github.com/ternarybob/colligo/internal/storage/files"
)

const (
	defaultEmbedTimeout = 30 * time.Second
	defaultOCRTimeout   = 60 * time.Second
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	StorageManager interfaces.StorageManager
	FileStorage    interfaces.FileStorage

	// Pipeline services
	EmbeddingService interfaces.EmbeddingService
	ExtractorService interfaces.ExtractorService
	IngestService    interfaces.IngestService
	SearchService    interfaces.SearchService

	// Background maintenance
	BackfillService *backfill.Service
	Scheduler       *backfill.Scheduler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("embedding_provider", cfg.Embedding.Provider).
		Bool("embedding_available", app.EmbeddingService.IsAvailable()).
		Bool("ocr_enabled", cfg.OCR.Enabled).
		Bool("processing_enabled", cfg.Processing.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the record store and the original-file store
func (a *App) initStorage() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	fileStore, err := files.NewStore(a.Config.Storage.Files.DocumentsDir, a.Logger)
	if err != nil {
		storageManager.Close()
		a.StorageManager = nil
		return fmt.Errorf("failed to create file store: %w", err)
	}
	a.FileStorage = fileStore

	a.Logger.Debug().
		Str("index_path", a.Config.Storage.Badger.Path).
		Str("documents_dir", a.Config.Storage.Files.DocumentsDir).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the pipeline services in dependency order
func (a *App) initServices() error {
	ctx := context.Background()

	provider, err := embeddings.NewProviderFromConfig(ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	embedder := embeddings.NewService(provider, parseDuration(a.Config.Embedding.Timeout, defaultEmbedTimeout), a.Logger)
	a.EmbeddingService = embedder

	if embedder.IsAvailable() {
		a.Logger.Debug().
			Str("provider", a.Config.Embedding.Provider).
			Str("model", embedder.ModelName()).
			Int("dimension", embedder.Dimension()).
			Msg("Embedding service initialized")
	} else {
		a.Logger.Warn().Msg("No embedding provider configured - documents will be ingested without vectors")
	}

	recognizer := a.resolveRecognizer(ctx, provider)
	a.ExtractorService = extract.NewService(recognizer, parseDuration(a.Config.OCR.Timeout, defaultOCRTimeout), a.Logger)

	textChunker := chunker.New(
		chunker.WithChunkTokens(a.Config.Chunking.ChunkTokens),
		chunker.WithOverlapTokens(a.Config.Chunking.OverlapTokens),
	)

	a.IngestService = ingest.NewService(
		a.StorageManager,
		a.FileStorage,
		a.ExtractorService,
		a.EmbeddingService,
		textChunker,
		a.Config.Processing.MaxConcurrentEmbeds,
		a.Logger,
	)

	a.SearchService = retrieval.NewService(a.StorageManager, a.EmbeddingService, a.Logger)

	a.BackfillService = backfill.NewService(
		a.StorageManager,
		a.EmbeddingService,
		a.Config.Processing.Limit,
		a.Config.Processing.MaxConcurrentEmbeds,
		a.Logger,
	)
	a.Scheduler = backfill.NewScheduler(a.BackfillService, a.Config.Processing.Schedule, a.Logger)

	return nil
}

// resolveRecognizer picks the OCR backend. A Gemini embedding provider
// already speaks the vision API and is reused directly; otherwise a
// dedicated client is built from the Gemini key. Returns nil when OCR is
// disabled or no key exists, which rejects image files at extraction time.
func (a *App) resolveRecognizer(ctx context.Context, provider embeddings.Provider) interfaces.TextRecognizer {
	if !a.Config.OCR.Enabled {
		return nil
	}

	if gemini, ok := provider.(*embeddings.GeminiClient); ok {
		a.Logger.Debug().Str("model", a.Config.OCR.Model).Msg("Reusing Gemini embedding client for OCR")
		return gemini
	}

	apiKey, err := common.ResolveAPIKey("gemini_api_key", "")
	if err != nil {
		a.Logger.Warn().Msg("OCR enabled but no Gemini API key found, image ingestion disabled")
		return nil
	}

	gemini, err := embeddings.NewGeminiClient(ctx, apiKey, "", a.Config.OCR.Model, a.Config.Embedding.Dimension, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to initialize OCR client, image ingestion disabled")
		return nil
	}

	a.Logger.Debug().Str("model", a.Config.OCR.Model).Msg("OCR client initialized")
	return gemini
}

// Ingest processes a local file and reports the outcome as a result struct.
// A document ID is present whenever a record was created, including records
// that ended up in the failed state.
func (a *App) Ingest(ctx context.Context, path string, scope models.Scope) models.IngestResult {
	doc, err := a.IngestService.Ingest(ctx, path, scope)

	result := models.IngestResult{}
	if doc != nil {
		result.DocumentID = doc.ID
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

// Search returns the chunks most similar to the query, scoped and ranked
func (a *App) Search(ctx context.Context, query string, scope models.Scope, limit int) ([]models.SearchResult, error) {
	return a.SearchService.Search(ctx, query, scope, limit)
}

// Status returns the document record for an ID
func (a *App) Status(ctx context.Context, documentID string) (*models.Document, error) {
	return a.IngestService.Status(ctx, documentID)
}

// Delete removes a document and everything derived from it
func (a *App) Delete(ctx context.Context, documentID string) error {
	return a.IngestService.Delete(ctx, documentID)
}

// List returns document records matching the options
func (a *App) List(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return a.IngestService.List(ctx, opts)
}

// Backfill runs one embedding backfill sweep immediately
func (a *App) Backfill(ctx context.Context) (*models.BackfillStats, error) {
	return a.BackfillService.Run(ctx)
}

// StartScheduler starts the backfill scheduler when background processing
// is enabled. Callers that only run one-shot commands never start it.
func (a *App) StartScheduler() error {
	if !a.Config.Processing.Enabled {
		a.Logger.Info().Msg("Background processing disabled, scheduler not started")
		return nil
	}
	return a.Scheduler.Start()
}

// Close shuts down application resources in reverse dependency order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}

// parseDuration parses a config duration string, falling back when the
// value is empty or malformed
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
