package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anthropicllm "github.com/custodia-labs/helpdesk/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/helpdesk/internal/adapters/driven/llm/openai"
	memoryvector "github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/vector/upstash"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestIndex_CloseNil(t *testing.T) {
	idx := &Index{}
	assert.NoError(t, idx.Close())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  bool
		check    func(t *testing.T, svc any)
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  true,
		},
		{
			name:     "missing key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenRouter},
			wantErr:  true,
		},
		{
			name:     "openrouter uses openai adapter",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenRouter, APIKey: "k", Model: "openai/gpt-4o"},
			check: func(t *testing.T, svc any) {
				_, ok := svc.(*openaillm.LLMService)
				assert.True(t, ok)
			},
		},
		{
			name:     "ollama needs no key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			check: func(t *testing.T, svc any) {
				_, ok := svc.(*openaillm.LLMService)
				assert.True(t, ok)
			},
		},
		{
			name:     "anthropic",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			check: func(t *testing.T, svc any) {
				_, ok := svc.(*anthropicllm.LLMService)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			tt.check(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured returns nil", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
		},
		{
			name:     "anthropic is not an embedder",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateIndex(t *testing.T) {
	t.Run("upstash", func(t *testing.T) {
		s := domain.DefaultSettings()
		s.Vector.URL = "https://u.example"
		s.Vector.Token = "tok"

		idx, err := CreateIndex(context.Background(), &s)
		require.NoError(t, err)
		_, ok := idx.Store.(*upstash.Store)
		assert.True(t, ok)
		assert.Nil(t, idx.Embedder)
	})

	t.Run("upstash without credentials", func(t *testing.T) {
		s := domain.DefaultSettings()
		_, err := CreateIndex(context.Background(), &s)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("qdrant with ollama", func(t *testing.T) {
		s := domain.DefaultSettings()
		s.Vector.Provider = domain.VectorProviderQdrant
		s.Vector.URL = "http://localhost:6333"
		s.Embedding.Provider = domain.AIProviderOllama

		idx, err := CreateIndex(context.Background(), &s)
		require.NoError(t, err)
		_, ok := idx.Store.(*qdrant.Store)
		assert.True(t, ok)
		assert.NotNil(t, idx.Embedder)
		assert.NoError(t, idx.Close())
	})

	t.Run("qdrant without embedder", func(t *testing.T) {
		s := domain.DefaultSettings()
		s.Vector.Provider = domain.VectorProviderQdrant
		s.Vector.URL = "http://localhost:6333"

		_, err := CreateIndex(context.Background(), &s)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("memory", func(t *testing.T) {
		s := domain.DefaultSettings()
		s.Vector.Provider = domain.VectorProviderMemory

		idx, err := CreateIndex(context.Background(), &s)
		require.NoError(t, err)
		_, ok := idx.Store.(*memoryvector.Store)
		assert.True(t, ok)
	})
}

func TestValidateLLMConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	ok := &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "good", BaseURL: server.URL}
	assert.NoError(t, ValidateLLMConfig(context.Background(), ok))

	bad := &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "bad", BaseURL: server.URL}
	err := ValidateLLMConfig(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestValidateEmbeddingConfig_Unconfigured(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{}))
}
