package driving

import "github.com/custodia-labs/helpdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.Settings, error)

	// Set stores one configuration value by dot key, e.g. "llm.model".
	Set(key string, value any) error

	// SetLLMProvider configures the LLM provider, using the provider's
	// default model when model is empty.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetVectorProvider configures the vector index backend.
	SetVectorProvider(provider domain.VectorProvider, url, token string) error

	// Validate checks that the configured providers can be constructed.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
