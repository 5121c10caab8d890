package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"google.golang.org/genai"
)

const (
	defaultGeminiEmbedModel  = "gemini-embedding-001"
	defaultGeminiVisionModel = "gemini-2.5-flash"

	// ocrPrompt asks the vision model for a plain text transcription
	ocrPrompt = "Extract all readable text from this image. Return only the text content, preserving line breaks and reading order. If the image contains no text, return an empty response."
)

// GeminiClient provides embeddings and image text recognition through the
// Gemini API. One client serves both roles so OCR and embedding share a
// single connection and API key.
type GeminiClient struct {
	client      *genai.Client
	embedModel  string
	visionModel string
	dimension   int
	logger      arbor.ILogger
}

var (
	_ Provider                  = (*GeminiClient)(nil)
	_ interfaces.TextRecognizer = (*GeminiClient)(nil)
)

// NewGeminiClient creates a Gemini-backed provider
func NewGeminiClient(ctx context.Context, apiKey, embedModel, visionModel string, dimension int, logger arbor.ILogger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	if embedModel == "" {
		embedModel = defaultGeminiEmbedModel
	}
	if visionModel == "" {
		visionModel = defaultGeminiVisionModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		embedModel:  embedModel,
		visionModel: visionModel,
		dimension:   dimension,
		logger:      logger,
	}, nil
}

// Embed generates an embedding vector for the given text
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	outputDim := int32(c.dimension)

	result, err := c.client.Models.EmbedContent(ctx, c.embedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			OutputDimensionality: &outputDim,
		})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}

	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini embedding response contained no embeddings")
	}

	return result.Embeddings[0].Values, nil
}

// RecognizeText extracts readable text from an image using the vision model
func (c *GeminiClient) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("image data is empty")
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(ocrPrompt),
				genai.NewPartFromBytes(image, mimeType),
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini text recognition failed: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				builder.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(builder.String())

	c.logger.Debug().
		Str("model", c.visionModel).
		Str("mime_type", mimeType).
		Int("image_bytes", len(image)).
		Int("chars", len(text)).
		Msg("Recognized text from image")

	return text, nil
}

// ModelName returns the configured embedding model
func (c *GeminiClient) ModelName() string {
	return c.embedModel
}

// Dimension returns the configured vector dimension
func (c *GeminiClient) Dimension() int {
	return c.dimension
}
