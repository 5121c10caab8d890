package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for raw text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Check if a provider is configured
	IsAvailable() bool
}

// TextRecognizer extracts text from images (OCR)
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error)
}
