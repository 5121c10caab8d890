package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Embedding   EmbeddingConfig  `toml:"embedding"`
	Chunking    ChunkingConfig   `toml:"chunking"`
	OCR         OCRConfig        `toml:"ocr"`
	Processing  ProcessingConfig `toml:"processing"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"` // "debug", "info", "warn", "error"
	Format     string   `toml:"format" validate:"omitempty,oneof=text json"`                  // "json" or "text"
	Output     []string `toml:"output"`                                                       // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                                  // Time format for logs (default: "15:04:05.000")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Files  FilesConfig  `toml:"files"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// FilesConfig configures where original document files are kept
type FilesConfig struct {
	DocumentsDir string `toml:"documents_dir" validate:"required"` // One subdirectory per document
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider  string  `toml:"provider" validate:"omitempty,oneof=openai gemini none"` // "openai", "gemini", or "none" to disable
	Model     string  `toml:"model"`                                                  // Embedding model name
	APIKey    string  `toml:"api_key"`                                                // Provider API key (environment variables take priority)
	Dimension int     `toml:"dimension" validate:"gt=0"`                              // Vector dimension, fixed per store
	BaseURL   string  `toml:"base_url"`                                               // Override provider endpoint (OpenAI-compatible servers)
	RateLimit float64 `toml:"rate_limit" validate:"gte=0"`                            // Max requests per second, 0 for unlimited
	Timeout   string  `toml:"timeout"`                                                // Per-request timeout as duration string (default: "30s")
}

// ChunkingConfig tunes how extracted text is split into passages
type ChunkingConfig struct {
	ChunkTokens   int `toml:"chunk_tokens" validate:"gt=0"`    // Target tokens per chunk
	OverlapTokens int `toml:"overlap_tokens" validate:"gte=0"` // Tokens carried over between adjacent chunks
}

// OCRConfig configures image text recognition
type OCRConfig struct {
	Enabled bool   `toml:"enabled"` // Image ingestion is rejected when disabled
	Model   string `toml:"model"`   // Vision model for text recognition
	Timeout string `toml:"timeout"` // OCR deadline as duration string (default: "60s")
}

// ProcessingConfig configures the background embedding backfill
type ProcessingConfig struct {
	Enabled             bool   `toml:"enabled"`                                // Run the backfill scheduler in watch mode
	Schedule            string `toml:"schedule"`                               // Cron schedule format (with seconds field)
	Limit               int    `toml:"limit" validate:"gt=0"`                  // Max chunks to embed per backfill run
	MaxConcurrentEmbeds int    `toml:"max_concurrent_embeds" validate:"gte=1"` // Parallel embedding calls during ingestion
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/index",
			},
			Files: FilesConfig{
				DocumentsDir: "./data/documents",
			},
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			RateLimit: 2, // 2 requests per second
			Timeout:   "30s",
		},
		Chunking: ChunkingConfig{
			ChunkTokens:   500,
			OverlapTokens: 50,
		},
		OCR: OCRConfig{
			Enabled: false,                    // Disabled by default - needs a Gemini API key
			Model:   "gemini-3-flash-preview", // Vision model for text recognition
			Timeout: "60s",
		},
		Processing: ProcessingConfig{
			Enabled:             false,            // Disabled by default - user must explicitly opt-in
			Schedule:            "0 0 */6 * * *",  // Every 6 hours (cron format with seconds)
			Limit:               1000,             // Max chunks per backfill run to prevent resource exhaustion
			MaxConcurrentEmbeds: 1,                // Sequential embedding keeps chunk ordering deterministic
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COLLIGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("COLLIGO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if documentsDir := os.Getenv("COLLIGO_DOCUMENTS_DIR"); documentsDir != "" {
		config.Storage.Files.DocumentsDir = documentsDir
	}

	// Embedding configuration
	if provider := os.Getenv("COLLIGO_EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("COLLIGO_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if apiKey := os.Getenv("COLLIGO_EMBEDDING_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}
	if dimension := os.Getenv("COLLIGO_EMBEDDING_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embedding.Dimension = d
		}
	}
	if baseURL := os.Getenv("COLLIGO_EMBEDDING_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("COLLIGO_EMBEDDING_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.ParseFloat(rateLimit, 64); err == nil {
			config.Embedding.RateLimit = rl
		}
	}
	if timeout := os.Getenv("COLLIGO_EMBEDDING_TIMEOUT"); timeout != "" {
		config.Embedding.Timeout = timeout
	}

	// Chunking configuration
	if chunkTokens := os.Getenv("COLLIGO_CHUNK_TOKENS"); chunkTokens != "" {
		if ct, err := strconv.Atoi(chunkTokens); err == nil {
			config.Chunking.ChunkTokens = ct
		}
	}
	if overlapTokens := os.Getenv("COLLIGO_OVERLAP_TOKENS"); overlapTokens != "" {
		if ot, err := strconv.Atoi(overlapTokens); err == nil {
			config.Chunking.OverlapTokens = ot
		}
	}

	// OCR configuration
	if enabled := os.Getenv("COLLIGO_OCR_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.OCR.Enabled = e
		}
	}
	if model := os.Getenv("COLLIGO_OCR_MODEL"); model != "" {
		config.OCR.Model = model
	}
	if timeout := os.Getenv("COLLIGO_OCR_TIMEOUT"); timeout != "" {
		config.OCR.Timeout = timeout
	}

	// Processing configuration
	if enabled := os.Getenv("COLLIGO_PROCESSING_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Processing.Enabled = e
		}
	}
	if schedule := os.Getenv("COLLIGO_PROCESSING_SCHEDULE"); schedule != "" {
		config.Processing.Schedule = schedule
	}
	if limit := os.Getenv("COLLIGO_PROCESSING_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Processing.Limit = l
		}
	}
	if maxConcurrent := os.Getenv("COLLIGO_PROCESSING_MAX_CONCURRENT_EMBEDS"); maxConcurrent != "" {
		if mc, err := strconv.Atoi(maxConcurrent); err == nil {
			config.Processing.MaxConcurrentEmbeds = mc
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, dataDir string) {
	// Command-line flags have highest priority
	if dataDir != "" {
		config.Storage.Badger.Path = filepath.Join(dataDir, "index")
		config.Storage.Files.DocumentsDir = filepath.Join(dataDir, "documents")
	}
}

// Validate checks the configuration against its declared constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → config fallback → error
// This ensures COLLIGO_* environment variables always take precedence
func ResolveAPIKey(name string, configFallback string) (string, error) {
	// Map of key names to environment variable names. COLLIGO-prefixed
	// variables take priority over the provider's conventional name.
	keyToEnvMapping := map[string][]string{
		"openai_api_key": {"COLLIGO_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"gemini_api_key": {"COLLIGO_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
