// -----------------------------------------------------------------------
// Embedding Service - wraps a provider client with the invariants every
// caller relies on: truncation, timeouts, and dimension verification
// -----------------------------------------------------------------------

package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// maxEmbedChars bounds the text sent to a provider. Longer chunk content
// is truncated, never rejected.
const maxEmbedChars = 8000

// defaultTimeout bounds a single provider request
const defaultTimeout = 30 * time.Second

// Provider is a single embedding backend
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimension() int
}

// Service implements the EmbeddingService interface around a Provider. A
// nil provider means embedding is not configured: callers get
// ErrEmbeddingUnavailable and decide how to degrade.
type Service struct {
	provider Provider
	timeout  time.Duration
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates the embedding service. Provider may be nil when no
// provider is configured.
func NewService(provider Provider, timeout time.Duration, logger arbor.ILogger) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// GenerateEmbedding embeds a single text. Text beyond the character limit
// is truncated before the request.
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.provider == nil {
		return nil, interfaces.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, interfaces.ErrEmptyText
	}

	if len(text) > maxEmbedChars {
		s.logger.Debug().
			Int("original_chars", len(text)).
			Int("truncated_chars", maxEmbedChars).
			Msg("Truncating text for embedding")
		text = text[:maxEmbedChars]
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	vector, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrEmbeddingFailed, err)
	}

	if expected := s.provider.Dimension(); len(vector) != expected {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, expected %d",
			interfaces.ErrEmbeddingFailed, len(vector), expected)
	}

	s.logger.Debug().
		Str("model", s.provider.ModelName()).
		Int("chars", len(text)).
		Int("dimension", len(vector)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return vector, nil
}

// ModelName returns the provider's model name, or empty when disabled
func (s *Service) ModelName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.ModelName()
}

// Dimension returns the provider's vector dimension, or zero when disabled
func (s *Service) Dimension() int {
	if s.provider == nil {
		return 0
	}
	return s.provider.Dimension()
}

// IsAvailable reports whether a provider is configured
func (s *Service) IsAvailable() bool {
	return s.provider != nil
}
