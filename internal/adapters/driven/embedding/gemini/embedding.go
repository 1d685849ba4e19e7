// Package gemini provides an embedding service adapter using the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions is the embedding vector size (default: 768).
	Dimensions int

	// TaskType is passed to the API, e.g. RETRIEVAL_DOCUMENT.
	TaskType string
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int
	taskType   string
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.TaskType == "" {
		cfg.TaskType = "SEMANTIC_SIMILARITY"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		taskType:   cfg.TaskType,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch uses the native batch support of EmbedContent.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx, s.model, contents, &genai.EmbedContentConfig{
		TaskType: s.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short probe string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
