// Package openai provides an LLM service adapter for OpenAI-compatible
// chat completion APIs (OpenAI, OpenRouter and Ollama's /v1 endpoint).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OllamaBaseURL     = "http://localhost:11434/v1"
	DefaultLLMModel   = "gpt-4o"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key. Required unless AllowAnonymous is set.
	APIKey string

	// AllowAnonymous permits an empty key for local servers.
	AllowAnonymous bool

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for OpenRouter, Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Headers are sent with every request, e.g. OpenRouter attribution.
	Headers map[string]string

	// Transport overrides the HTTP transport, e.g. a rate limiter.
	Transport http.RoundTripper
}

// LLMService provides tool-calling chat using an OpenAI-compatible API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	headers map[string]string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Tools       []chatTool          `json:"tools,omitempty"`
	ToolChoice  string              `json:"tool_choice,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   *string        `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" && !cfg.AllowAnonymous {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		headers: cfg.Headers,
	}, nil
}

// Chat runs one completion round-trip with the offered tools.
func (s *LLMService) Chat(ctx context.Context, in driven.ChatRequest) (*driven.ChatResponse, error) {
	reqBody := chatCompletionRequest{
		Model:    s.model,
		Messages: toMessages(in),
	}
	if in.MaxTokens > 0 {
		reqBody.MaxTokens = in.MaxTokens
	}
	if in.Temperature > 0 {
		temp := in.Temperature
		reqBody.Temperature = &temp
	}
	if len(in.Tools) > 0 {
		reqBody.Tools = make([]chatTool, len(in.Tools))
		for i, t := range in.Tools {
			reqBody.Tools[i] = chatTool{
				Type:     "function",
				Function: chatFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
			}
		}
		reqBody.ToolChoice = string(in.ToolChoice)
		if reqBody.ToolChoice == "" {
			reqBody.ToolChoice = string(driven.ToolChoiceAuto)
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned")
	}

	choice := chatResp.Choices[0]
	out := &driven.ChatResponse{FinishReason: choice.FinishReason}
	if choice.Message.Content != nil {
		out.Content = *choice.Message.Content
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, driven.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// toMessages converts the conversation, placing the system prompt first.
func toMessages(in driven.ChatRequest) []chatCompletionMsg {
	msgs := make([]chatCompletionMsg, 0, len(in.Messages)+1)
	if in.System != "" {
		system := in.System
		msgs = append(msgs, chatCompletionMsg{Role: driven.RoleSystem, Content: &system})
	}
	for _, m := range in.Messages {
		content := m.Content
		msg := chatCompletionMsg{Role: m.Role, Content: &content}
		switch m.Role {
		case driven.RoleAssistant:
			if content == "" && len(m.ToolCalls) > 0 {
				msg.Content = nil
			}
			for _, tc := range m.ToolCalls {
				call := chatToolCall{ID: tc.ID, Type: "function"}
				call.Function.Name = tc.Name
				call.Function.Arguments = tc.Arguments
				msg.ToolCalls = append(msg.ToolCalls, call)
			}
		case driven.RoleTool:
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.Name
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (s *LLMService) setHeaders(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
