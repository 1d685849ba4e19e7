// Package anthropic provides an LLM service adapter using Anthropic API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	// AnthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
	// Transport overrides the HTTP transport, e.g. a rate limiter.
	Transport http.RoundTripper
}

// LLMService provides tool-calling chat using Anthropic API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	Tools       []toolSpec        `json:"tools,omitempty"`
	ToolChoice  *toolChoice       `json:"tool_choice,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is one text, tool_use or tool_result block.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Chat runs one /v1/messages round-trip with the offered tools.
func (s *LLMService) Chat(ctx context.Context, in driven.ChatRequest) (*driven.ChatResponse, error) {
	// Anthropic requires max_tokens to be set
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  toMessages(in.Messages),
		MaxTokens: maxTokens,
		System:    in.System,
	}
	if in.Temperature > 0 {
		temp := in.Temperature
		reqBody.Temperature = &temp
	}
	if len(in.Tools) > 0 {
		reqBody.Tools = make([]toolSpec, len(in.Tools))
		for i, t := range in.Tools {
			schema := t.Parameters
			if schema == nil {
				schema = map[string]any{"type": "object"}
			}
			reqBody.Tools[i] = toolSpec{Name: t.Name, Description: t.Description, InputSchema: schema}
		}
		reqBody.ToolChoice = &toolChoice{Type: choiceType(in.ToolChoice)}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if msgResp.Error != nil {
		return nil, fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(msgResp.Content) == 0 {
		return nil, fmt.Errorf("anthropic: no response content returned")
	}

	out := &driven.ChatResponse{FinishReason: msgResp.StopReason}
	var text strings.Builder
	for _, block := range msgResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, driven.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	out.Content = text.String()
	return out, nil
}

func choiceType(c driven.ToolChoice) string {
	switch c {
	case driven.ToolChoiceNone:
		return "none"
	case driven.ToolChoiceRequired:
		return "any"
	default:
		return "auto"
	}
}

// toMessages converts the conversation into Anthropic blocks. Tool results
// travel as user messages and consecutive same-role messages are merged,
// since the API requires alternating roles.
func toMessages(messages []driven.ChatMessage) []messagesMessage {
	var out []messagesMessage
	for _, m := range messages {
		role := m.Role
		var blocks []contentBlock

		switch m.Role {
		case driven.RoleTool:
			role = driven.RoleUser
			blocks = append(blocks, contentBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content})
		case driven.RoleAssistant:
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
		default:
			role = driven.RoleUser
			if strings.TrimSpace(m.Content) != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
			}
		}

		if len(blocks) == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, messagesMessage{Role: role, Content: blocks})
	}
	return out
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
