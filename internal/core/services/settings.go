package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyVectorProvider   = "vector.provider"
	KeyVectorURL        = "vector.url"
	KeyVectorToken      = "vector.token"
	KeyVectorCollection = "vector.collection"

	KeyEmbedProvider = "embedding.provider"
	KeyEmbedModel    = "embedding.model"
	KeyEmbedBaseURL  = "embedding.base_url"
	KeyEmbedAPIKey   = "embedding.api_key"

	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTemperature = "llm.temperature"
	KeyLLMMaxTokens   = "llm.max_tokens"

	KeyMailAPIKey         = "mail.api_key"
	KeyMailBaseURL        = "mail.base_url"
	KeyMailWebhookSecret  = "mail.webhook_secret"
	KeyMailHelpdeskDomain = "mail.helpdesk_domain"
	KeyMailRPS            = "mail.requests_per_second"

	KeyServerAddr           = "server.addr"
	KeyServerAllowedOrigins = "server.allowed_origins"
	KeyServerMaxUpload      = "server.max_upload_bytes"

	KeyStorageTenantDB      = "storage.tenant_db"
	KeyStorageRedisAddr     = "storage.redis_addr"
	KeyStorageRedisPassword = "storage.redis_password"
	KeyStorageRedisDB       = "storage.redis_db"

	KeyIngestMaxFileBytes  = "ingest.max_file_bytes"
	KeyIngestMaxChunkChars = "ingest.max_chunk_chars"
	KeyIngestMaxChunks     = "ingest.max_chunks"

	KeyAgentMaxSteps = "agent.max_steps"
	KeyAgentDedupTTL = "agent.dedup_ttl"

	// KeyProviderAPIKeyPrefix holds per-provider API keys, e.g. "keys.openrouter".
	// They apply when llm.api_key or embedding.api_key is unset.
	KeyProviderAPIKeyPrefix = "keys."
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	llmProvider := s.getProvider(KeyLLMProvider, d.LLM.Provider)
	llmModel := s.configStore.GetString(KeyLLMModel)
	if llmModel == "" {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}

	embedProvider := s.getProvider(KeyEmbedProvider, d.Embedding.Provider)
	embedModel := s.configStore.GetString(KeyEmbedModel)
	if embedModel == "" {
		embedModel = domain.DefaultEmbeddingModels()[embedProvider]
	}

	settings := &domain.Settings{
		Vector: domain.VectorSettings{
			Provider:   s.getVectorProvider(d.Vector.Provider),
			URL:        s.configStore.GetString(KeyVectorURL),
			Token:      s.configStore.GetString(KeyVectorToken),
			Collection: s.getString(KeyVectorCollection, d.Vector.Collection),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model:    embedModel,
			BaseURL:  s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:   s.apiKey(KeyEmbedAPIKey, embedProvider),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       llmModel,
			BaseURL:     s.configStore.GetString(KeyLLMBaseURL),
			APIKey:      s.apiKey(KeyLLMAPIKey, llmProvider),
			Temperature: s.getFloat(KeyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(KeyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Mail: domain.MailSettings{
			APIKey:            s.configStore.GetString(KeyMailAPIKey),
			BaseURL:           s.configStore.GetString(KeyMailBaseURL),
			WebhookSecret:     s.configStore.GetString(KeyMailWebhookSecret),
			HelpdeskDomain:    s.getString(KeyMailHelpdeskDomain, d.Mail.HelpdeskDomain),
			RequestsPerSecond: s.getFloat(KeyMailRPS, d.Mail.RequestsPerSecond),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(KeyServerAddr, d.Server.Addr),
			AllowedOrigins: s.configStore.GetStringSlice(KeyServerAllowedOrigins),
			MaxUploadBytes: int64(s.getInt(KeyServerMaxUpload, int(d.Server.MaxUploadBytes))),
		},
		Storage: domain.StorageSettings{
			TenantDBPath:  s.configStore.GetString(KeyStorageTenantDB),
			RedisAddr:     s.configStore.GetString(KeyStorageRedisAddr),
			RedisPassword: s.configStore.GetString(KeyStorageRedisPassword),
			RedisDB:       s.configStore.GetInt(KeyStorageRedisDB),
		},
		Ingest: domain.IngestSettings{
			MaxFileBytes:  s.getInt(KeyIngestMaxFileBytes, d.Ingest.MaxFileBytes),
			MaxChunkChars: s.getInt(KeyIngestMaxChunkChars, d.Ingest.MaxChunkChars),
			MaxChunks:     s.getInt(KeyIngestMaxChunks, d.Ingest.MaxChunks),
		},
		Agent: domain.AgentSettings{
			MaxSteps: s.getInt(KeyAgentMaxSteps, d.Agent.MaxSteps),
			DedupTTL: s.getDuration(KeyAgentDedupTTL, d.Agent.DedupTTL),
		},
	}

	return settings, nil
}

// Set stores one configuration value.
func (s *SettingsService) Set(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	if err := s.Set(KeyLLMProvider, provider.String()); err != nil {
		return err
	}
	if err := s.Set(KeyLLMModel, model); err != nil {
		return err
	}
	if apiKey != "" {
		return s.Set(KeyLLMAPIKey, apiKey)
	}
	return nil
}

// SetVectorProvider configures the vector index backend.
func (s *SettingsService) SetVectorProvider(provider domain.VectorProvider, url, token string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid vector provider: %s", domain.ErrInvalidInput, provider)
	}
	if err := s.Set(KeyVectorProvider, provider.String()); err != nil {
		return err
	}
	if url != "" {
		if err := s.Set(KeyVectorURL, url); err != nil {
			return err
		}
	}
	if token != "" {
		return s.Set(KeyVectorToken, token)
	}
	return nil
}

// Validate reports every missing credential, wrapped in domain.ErrConfiguration.
// Mail and LLM settings are only needed for replies, so they are checked too
// but reported separately from the index.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Vector.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: vector provider %s is missing its URL or token",
			domain.ErrConfiguration, settings.Vector.Provider))
	}
	if settings.Vector.Provider == domain.VectorProviderQdrant && !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: qdrant requires an embedding provider (openai, gemini or ollama)",
			domain.ErrConfiguration))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: LLM provider %s needs an API key",
			domain.ErrConfiguration, settings.LLM.Provider))
	}
	if !settings.Mail.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: mail API key is not set", domain.ErrConfiguration))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorProvider(defaultVal domain.VectorProvider) domain.VectorProvider {
	provider := domain.VectorProvider(s.configStore.GetString(KeyVectorProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// apiKey prefers the explicit key, then the provider's own key.
func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	if provider == "" {
		return ""
	}
	return s.configStore.GetString(KeyProviderAPIKeyPrefix + provider.String())
}
