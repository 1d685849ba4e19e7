package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOpenRouter is the OpenRouter OpenAI-compatible gateway.
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderOpenRouter,
		AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOpenRouter:
		return "OpenRouter (cloud gateway)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorProvider identifies the vector index backend.
type VectorProvider string

// Available vector providers.
const (
	// VectorProviderUpstash is Upstash Vector with server-side embedding.
	VectorProviderUpstash VectorProvider = "upstash"

	// VectorProviderQdrant is a Qdrant collection fed by an embedding provider.
	VectorProviderQdrant VectorProvider = "qdrant"

	// VectorProviderMemory is an in-process lexical index for local use.
	VectorProviderMemory VectorProvider = "memory"
)

// IsValid returns true if the vector provider is recognised.
func (p VectorProvider) IsValid() bool {
	switch p {
	case VectorProviderUpstash, VectorProviderQdrant, VectorProviderMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p VectorProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p VectorProvider) Description() string {
	switch p {
	case VectorProviderUpstash:
		return "Upstash Vector (hosted, built-in embedding)"
	case VectorProviderQdrant:
		return "Qdrant (self-hosted)"
	case VectorProviderMemory:
		return "In-memory (development only)"
	default:
		return unknownDescription
	}
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	// Provider is the index backend.
	Provider VectorProvider

	// URL is the REST endpoint.
	URL string

	// Token is the REST credential.
	Token string

	// Collection is the Qdrant collection name.
	Collection string
}

// IsConfigured returns true if the vector store can be reached.
func (v VectorSettings) IsConfigured() bool {
	switch v.Provider {
	case VectorProviderUpstash:
		return v.URL != "" && v.Token != ""
	case VectorProviderQdrant:
		return v.URL != ""
	case VectorProviderMemory:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
// Only stores that embed client-side use it.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic || e.Provider == AIProviderOpenRouter {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps each completion.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// MailSettings holds mail transport configuration.
type MailSettings struct {
	// APIKey authenticates against the mail provider.
	APIKey string

	// BaseURL is the mail provider API endpoint.
	BaseURL string

	// WebhookSecret verifies inbound webhook signatures.
	WebhookSecret string

	// HelpdeskDomain hosts the "{slug}@domain" mailboxes.
	HelpdeskDomain string

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if replies can be delivered.
func (m MailSettings) IsConfigured() bool {
	return m.APIKey != ""
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// AllowedOrigins is the CORS allow-list for the dashboard.
	AllowedOrigins []string

	// MaxUploadBytes bounds one multipart ingestion request.
	MaxUploadBytes int64
}

// StorageSettings holds local persistence configuration.
type StorageSettings struct {
	// TenantDBPath is the SQLite database file for tenants.
	TenantDBPath string

	// RedisAddr enables the Redis reply ledger when set.
	RedisAddr string

	// RedisPassword authenticates against Redis.
	RedisPassword string

	// RedisDB selects the Redis logical database.
	RedisDB int
}

// IngestSettings holds chunking and upload limits.
type IngestSettings struct {
	// MaxFileBytes is the per-file upload ceiling.
	MaxFileBytes int

	// MaxChunkChars is the chunk window in characters.
	MaxChunkChars int

	// MaxChunks caps chunks per file.
	MaxChunks int
}

// AgentSettings holds reply loop configuration.
type AgentSettings struct {
	// MaxSteps is the tool-call step budget per turn.
	MaxSteps int

	// DedupTTL is how long handled message ids are remembered.
	DedupTTL time.Duration
}

// Settings holds all application settings.
type Settings struct {
	Vector    VectorSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Mail      MailSettings
	Server    ServerSettings
	Storage   StorageSettings
	Ingest    IngestSettings
	Agent     AgentSettings
}

// DefaultSettings returns settings with sensible defaults.
// Credentials are left empty and must come from config or environment.
func DefaultSettings() Settings {
	return Settings{
		Vector: VectorSettings{
			Provider:   VectorProviderUpstash,
			Collection: "helpdesk",
		},
		Embedding: EmbeddingSettings{},
		LLM: LLMSettings{
			Provider:    AIProviderOpenRouter,
			Model:       DefaultLLMModels()[AIProviderOpenRouter],
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Mail: MailSettings{
			HelpdeskDomain:    DefaultHelpdeskDomain,
			RequestsPerSecond: 5,
		},
		Server: ServerSettings{
			Addr:           ":8080",
			MaxUploadBytes: 64 << 20,
		},
		Ingest: IngestSettings{
			MaxFileBytes:  10 << 20,
			MaxChunkChars: 2000,
			MaxChunks:     50,
		},
		Agent: AgentSettings{
			MaxSteps: 10,
			DedupTTL: 24 * time.Hour,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenRouter,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "llama3.2",
		AIProviderOpenAI:     "gpt-4o",
		AIProviderOpenRouter: "openai/gpt-4o",
		AIProviderAnthropic:  "claude-3-5-sonnet-latest",
		AIProviderGemini:     "gemini-2.0-flash",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}
