package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/app"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles configPaths // Multiple -config flags supported
	dataDir     = flag.String("data", "", "Data directory root (overrides storage paths in config)")

	ingestPath  = flag.String("ingest", "", "Ingest a local file into the index")
	searchQuery = flag.String("search", "", "Search indexed documents for a phrase")
	statusID    = flag.String("status", "", "Show a document's processing status")
	deleteID    = flag.String("delete", "", "Delete a document and everything derived from it")
	listDocs    = flag.Bool("list", false, "List indexed documents")
	watchMode   = flag.Bool("watch", false, "Run as a daemon with the embedding backfill scheduler")

	projectID   = flag.String("project", "", "Project scope for -ingest, -search and -list")
	taskID      = flag.String("task", "", "Task scope for -ingest, -search and -list")
	resultLimit = flag.Int("limit", 0, "Maximum results for -search and -list (0 for default)")

	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("Colligo version %s\n", common.LoadVersionFromFile())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("colligo.toml"); err == nil {
			configFiles = append(configFiles, "colligo.toml")
		} else if _, err := os.Stat("deployments/local/colligo.toml"); err == nil {
			// Fallback for users running from the project root
			configFiles = append(configFiles, "deployments/local/colligo.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Console-only logger for errors before InitLogger runs
		common.GetLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, *dataDir)

	if err := config.Validate(); err != nil {
		common.GetLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	// 3. Initialize logger with final configuration
	logger = common.InitLogger(config)

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("index_path", config.Storage.Badger.Path).
		Str("documents_dir", config.Storage.Files.DocumentsDir).
		Str("embedding_provider", config.Embedding.Provider).
		Str("log_file", common.GetLogFilePath(logger)).
		Msg("Resolved configuration")

	// Initialize application
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	if err := runCommand(application); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		application.Close()
		os.Exit(1)
	}

	if err := application.Close(); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
		os.Exit(1)
	}
}

// runCommand dispatches exactly one command flag
func runCommand(application *app.App) error {
	ctx := context.Background()
	scope := models.Scope{ProjectID: *projectID, TaskID: *taskID}

	switch {
	case *ingestPath != "":
		return runIngest(ctx, application, scope)
	case *searchQuery != "":
		return runSearch(ctx, application, scope)
	case *statusID != "":
		return runStatus(ctx, application)
	case *deleteID != "":
		return runDelete(ctx, application)
	case *listDocs:
		return runList(ctx, application, scope)
	case *watchMode:
		return runWatch(application)
	default:
		flag.Usage()
		return fmt.Errorf("no command given: use -ingest, -search, -status, -delete, -list or -watch")
	}
}

// runWatch blocks until an interrupt, running the backfill scheduler when
// background processing is enabled
func runWatch(application *app.App) error {
	if err := application.StartScheduler(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Bool("scheduler_running", application.Scheduler.IsRunning()).
		Msg("Daemon started - Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
	return nil
}
