// Package ai builds the language model, embedding and vector index adapters
// selected by the application settings.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	geminiembed "github.com/custodia-labs/helpdesk/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/helpdesk/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/helpdesk/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/helpdesk/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/helpdesk/internal/adapters/driven/llm/gemini"
	openaillm "github.com/custodia-labs/helpdesk/internal/adapters/driven/llm/openai"
	memoryvector "github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/upstash"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// openRouterHeaders identify the app on OpenRouter's dashboard.
var openRouterHeaders = map[string]string{
	"X-Title": "helpdesk",
}

// Index is a vector store plus the embedder feeding it, if any.
type Index struct {
	Store    driven.VectorStore
	Embedder driven.EmbeddingService
}

// Close releases the store and embedder.
func (i *Index) Close() error {
	var err error
	if i.Store != nil {
		err = i.Store.Close()
	}
	if i.Embedder != nil {
		if cerr := i.Embedder.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// CreateLLMService creates the language model selected by settings.
// transport may be nil; it wraps every HTTP call, e.g. with a rate limiter.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings, transport http.RoundTripper) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		provider := domain.AIProvider("")
		if settings != nil {
			provider = settings.Provider
		}
		return nil, fmt.Errorf("%w: LLM provider %q is not configured", domain.ErrConfiguration, provider)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			Transport: transport,
		})

	case domain.AIProviderOpenRouter:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:    settings.APIKey,
			BaseURL:   orDefault(settings.BaseURL, openaillm.OpenRouterBaseURL),
			Model:     settings.Model,
			Headers:   openRouterHeaders,
			Transport: transport,
		})

	case domain.AIProviderOllama:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			AllowAnonymous: true,
			BaseURL:        orDefault(settings.BaseURL, openaillm.OllamaBaseURL),
			Model:          settings.Model,
			Transport:      transport,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			Transport: transport,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateEmbeddingService creates the embedder selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use openai, gemini or ollama",
			domain.ErrConfiguration, settings.Provider)
	}
}

// CreateIndex creates the vector store selected by settings.
// Qdrant also gets the configured embedder; Upstash embeds server-side.
func CreateIndex(ctx context.Context, settings *domain.Settings) (*Index, error) {
	vs := settings.Vector
	if !vs.IsConfigured() {
		return nil, fmt.Errorf("%w: vector provider %s is missing its URL or token", domain.ErrConfiguration, vs.Provider)
	}

	switch vs.Provider {
	case domain.VectorProviderUpstash:
		store, err := upstash.New(upstash.Config{URL: vs.URL, Token: vs.Token})
		if err != nil {
			return nil, err
		}
		return &Index{Store: store}, nil

	case domain.VectorProviderQdrant:
		embedder, err := CreateEmbeddingService(ctx, &settings.Embedding)
		if err != nil {
			return nil, err
		}
		if embedder == nil {
			return nil, fmt.Errorf("%w: qdrant requires an embedding provider", domain.ErrConfiguration)
		}
		store, err := qdrant.New(qdrant.Config{
			URL:        vs.URL,
			APIKey:     vs.Token,
			Collection: vs.Collection,
		}, embedder)
		if err != nil {
			_ = embedder.Close()
			return nil, err
		}
		return &Index{Store: store, Embedder: embedder}, nil

	case domain.VectorProviderMemory:
		return &Index{Store: memoryvector.New()}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector provider: %s", domain.ErrConfiguration, vs.Provider)
	}
}

// ValidateLLMConfig creates the configured model and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("LLM %s unreachable: %w", settings.Provider, err)
	}
	return nil
}

// ValidateEmbeddingConfig creates the configured embedder and pings it.
// An unconfigured embedder is not an error.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("embedding %s unreachable: %w", settings.Provider, err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
