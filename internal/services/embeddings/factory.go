package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
)

// NewProviderFromConfig builds the embedding provider named by the
// configuration. A missing API key is not fatal: the function returns a nil
// provider so the pipeline runs in degraded mode, ingesting and chunking
// without vectors.
func NewProviderFromConfig(ctx context.Context, config *common.Config, logger arbor.ILogger) (Provider, error) {
	switch strings.ToLower(config.Embedding.Provider) {
	case "", "none":
		logger.Info().Msg("Embedding provider disabled by configuration")
		return nil, nil

	case "openai":
		apiKey, err := common.ResolveAPIKey("openai_api_key", config.Embedding.APIKey)
		if err != nil {
			logger.Warn().Msg("OpenAI API key not found, embeddings disabled")
			return nil, nil
		}

		opts := []OpenAIOption{}
		if config.Embedding.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(config.Embedding.BaseURL))
		}
		if config.Embedding.RateLimit > 0 {
			opts = append(opts, WithOpenAIRateLimit(config.Embedding.RateLimit))
		}

		return NewOpenAIClient(apiKey, config.Embedding.Model, config.Embedding.Dimension, opts...)

	case "gemini":
		apiKey, err := common.ResolveAPIKey("gemini_api_key", config.Embedding.APIKey)
		if err != nil {
			logger.Warn().Msg("Gemini API key not found, embeddings disabled")
			return nil, nil
		}

		return NewGeminiClient(ctx, apiKey, config.Embedding.Model, config.OCR.Model, config.Embedding.Dimension, logger)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Embedding.Provider)
	}
}
