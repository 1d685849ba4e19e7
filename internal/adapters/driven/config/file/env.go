package file

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvBindings maps environment variables to config keys.
// The Upstash and Qdrant variables share vector.url and vector.token;
// when both are set the Upstash ones win.
//
//nolint:gosec // G101: variable names, not credentials.
func DefaultEnvBindings() map[string]string {
	return map[string]string{
		"HELPDESK_VECTOR_PROVIDER":  "vector.provider",
		"QDRANT_URL":                "vector.url",
		"QDRANT_API_KEY":            "vector.token",
		"QDRANT_COLLECTION":         "vector.collection",
		"UPSTASH_VECTOR_REST_URL":   "vector.url",
		"UPSTASH_VECTOR_REST_TOKEN": "vector.token",

		"HELPDESK_EMBEDDING_PROVIDER": "embedding.provider",
		"HELPDESK_EMBEDDING_MODEL":    "embedding.model",
		"OLLAMA_HOST":                 "embedding.base_url",

		"HELPDESK_LLM_PROVIDER": "llm.provider",
		"HELPDESK_LLM_MODEL":    "llm.model",
		"HELPDESK_LLM_BASE_URL": "llm.base_url",

		"OPENROUTER_API_KEY": "keys.openrouter",
		"OPENAI_API_KEY":     "keys.openai",
		"ANTHROPIC_API_KEY":  "keys.anthropic",
		"GEMINI_API_KEY":     "keys.gemini",

		"AIINBX_API_KEY":        "mail.api_key",
		"AIINBX_BASE_URL":       "mail.base_url",
		"AIINBX_WEBHOOK_SECRET": "mail.webhook_secret",
		"HELPDESK_DOMAIN":       "mail.helpdesk_domain",

		"HELPDESK_ADDR":            "server.addr",
		"HELPDESK_ALLOWED_ORIGINS": "server.allowed_origins",

		"HELPDESK_DB":    "storage.tenant_db",
		"REDIS_ADDR":     "storage.redis_addr",
		"REDIS_PASSWORD": "storage.redis_password",
		"REDIS_DB":       "storage.redis_db",

		"HELPDESK_MAX_STEPS": "agent.max_steps",
		"HELPDESK_DEDUP_TTL": "agent.dedup_ttl",
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and existing variables are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
