package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultOpenAITimeout   = 30 * time.Second
	defaultOpenAIRateLimit = 2.0 // requests per second
)

// OpenAIClient calls the OpenAI embeddings endpoint. It also works against
// any compatible endpoint via WithOpenAIBaseURL.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Provider = (*OpenAIClient)(nil)

// OpenAIOption configures the OpenAI client
type OpenAIOption func(*OpenAIClient)

// WithOpenAIBaseURL overrides the API base URL
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithOpenAIHTTPClient overrides the HTTP client
func WithOpenAIHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		c.httpClient = httpClient
	}
}

// WithOpenAIRateLimit sets the request rate limit in requests per second
func WithOpenAIRateLimit(requestsPerSecond float64) OpenAIOption {
	return func(c *OpenAIClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
		}
	}
}

// NewOpenAIClient creates an embedding provider backed by the OpenAI API
func NewOpenAIClient(apiKey, model string, dimension int, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	client := &OpenAIClient{
		baseURL:   defaultOpenAIBaseURL,
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: defaultOpenAITimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultOpenAIRateLimit), 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed generates an embedding vector for the given text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	payload, err := json.Marshal(embeddingRequest{
		Model:      c.model,
		Input:      []string{text},
		Dimensions: c.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	values := result.Data[0].Embedding
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}

	return vector, nil
}

// ModelName returns the configured embedding model
func (c *OpenAIClient) ModelName() string {
	return c.model
}

// Dimension returns the configured vector dimension
func (c *OpenAIClient) Dimension() int {
	return c.dimension
}
