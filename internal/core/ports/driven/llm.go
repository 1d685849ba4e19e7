package driven

import "context"

// LLMService provides tool-calling chat completion for the reply agent.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, OpenRouter, Ollama)
//   - Anthropic (Claude)
//   - Google Gemini
type LLMService interface {
	// Chat runs one model round-trip. The response either carries
	// tool calls to execute or final content.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoice controls whether the model may call tools.
type ToolChoice string

// Tool choices.
const (
	// ToolChoiceAuto lets the model decide.
	ToolChoiceAuto ToolChoice = "auto"

	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoice = "none"

	// ToolChoiceRequired forces at least one tool call.
	ToolChoiceRequired ToolChoice = "required"
)

// ChatRequest is one model round-trip.
type ChatRequest struct {
	// System is the system prompt.
	System string

	// Messages is the conversation so far.
	Messages []ChatMessage

	// Tools are the functions the model may call.
	Tools []ToolDefinition

	// ToolChoice defaults to auto when tools are present.
	ToolChoice ToolChoice

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "user", "assistant" or "tool".
	Role string

	// Content is the message text.
	Content string

	// ToolCalls are the calls an assistant message requested.
	ToolCalls []ToolCall

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string

	// Name is the tool name on tool messages.
	Name string
}

// ToolDefinition describes a callable function.
type ToolDefinition struct {
	Name        string
	Description string

	// Parameters is a JSON Schema object.
	Parameters map[string]any
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string

	// Arguments is the raw JSON argument object.
	Arguments string
}

// ChatResponse is the model output for one round-trip.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// HasToolCalls reports whether the model asked for tools.
func (r *ChatResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}
