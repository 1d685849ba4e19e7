package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the reply agent.
// Templates use text/template syntax over the reply prompt data.
const (
	// PromptReplySystem is the agent system prompt.
	PromptReplySystem = "reply_system"

	// PromptReplyTask is the per-email task prompt.
	PromptReplyTask = "reply_task"

	// PromptSearchReminder is sent when the model answers before searching.
	PromptSearchReminder = "search_reminder"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use built-in default prompts.
	SetPromptStore(store PromptStore)
}
