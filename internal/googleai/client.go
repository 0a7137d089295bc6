// Package googleai provides a thin wrapper around the Google Gen AI SDK (Gemini API)
// for embeddings and structured text generation.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	// ErrEmptyInput is returned when GetEmbedding or GenerateStructured is called with empty input.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("googleai: embedding dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("googleai: no embedding in response")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("googleai: embedding dimension mismatch")
	// ErrNoCompletionInResponse is returned when the API response contains no candidates.
	ErrNoCompletionInResponse = errors.New("googleai: no completion in response")
)

const (
	defaultDimension         = 1536
	defaultEmbeddingModel    = "gemini-embedding-001"
	defaultGenerationModel   = "gemini-2.0-flash"
	defaultGenerationTimeout = 30 * time.Second
)

// Client calls the Gemini embeddings and generation APIs via the Google Gen AI SDK.
type Client struct {
	client            *genai.Client
	embeddingModel    string
	generationModel   string
	dimensions        int
	generationTimeout time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithDimensions sets the requested embedding dimension (must match DB column).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithEmbeddingModel sets the embedding model name. Empty uses the default.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithGenerationModel sets the generation model name. Empty uses the default.
func WithGenerationModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.generationModel = model
		}
	}
}

// WithGenerationTimeout bounds each GenerateStructured call.
func WithGenerationTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.generationTimeout = d
		}
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	client := &Client{
		client:            genaiClient,
		embeddingModel:    defaultEmbeddingModel,
		generationModel:   defaultGenerationModel,
		dimensions:        defaultDimension,
		generationTimeout: defaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// GetEmbedding returns the embedding vector for the given text using the configured model.
// The returned slice length equals the configured dimensions when OutputDimensionality is supported.
func (c *Client) GetEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 || c.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	contents := []*genai.Content{genai.NewContentFromText(input, genai.RoleUser)}
	//nolint:gosec // G115: c.dimensions is bounded above by math.MaxInt32
	dimInt32 := int32(c.dimensions)

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dimInt32,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, ErrNoEmbeddingInResponse
	}

	emb := resp.Embeddings[0].Values
	if len(emb) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions)
	}

	out := make([]float32, len(emb))
	copy(out, emb)

	return out, nil
}

// GenerateStructured runs one generation call in JSON mode and returns the raw JSON text.
// The call is bounded by the configured generation timeout.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", ErrEmptyInput
	}

	ctx, cancel := context.WithTimeout(ctx, c.generationTimeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.generationModel, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrNoCompletionInResponse
	}

	return text, nil
}
