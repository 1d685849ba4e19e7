// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorStore: Tenant-namespaced chunk storage and similarity query
//   - Extractor: Turns an uploaded file into plain text
//   - ExtractorRegistry: Selects the extractor for a file
//   - TenantStore: Tenant persistence
//   - ConfigStore: Application configuration
//
// # Reply Interfaces
//
// Needed only by the email reply agent:
//
//   - LLMService: Tool-calling chat completion
//   - MailProvider: Thread lookup and in-thread reply delivery
//   - ReplyLedger: Remembers which inbound messages were already handled
//   - PromptStore: Customisable prompt templates
//
// # Optional Interfaces
//
//   - EmbeddingService: Client-side embeddings for stores without built-in embedding
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
