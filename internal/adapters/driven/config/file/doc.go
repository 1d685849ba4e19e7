// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration with an environment overlay
//   - PromptStore: editable reply prompt templates with built-in fallbacks
//
// LoadDotEnv reads .env files with godotenv before the overlay is applied.
package file
