// Package gemini provides an LLM service adapter using the Google Gen AI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-2.0-flash).
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// LLMService provides tool-calling chat using Gemini.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

// Chat runs one GenerateContent round-trip with the offered tools.
func (s *LLMService) Chat(ctx context.Context, in driven.ChatRequest) (*driven.ChatResponse, error) {
	cfg := &genai.GenerateContentConfig{}
	if in.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}
	if in.Temperature > 0 {
		temp := float32(in.Temperature)
		cfg.Temperature = &temp
	}
	if len(in.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(in.Tools))
		for i, t := range in.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toSchema(t.Parameters),
			}
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: callingMode(in.ToolChoice)},
		}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, toContents(in.Messages), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: no candidates returned")
	}

	cand := resp.Candidates[0]
	out := &driven.ChatResponse{FinishReason: string(cand.FinishReason)}
	var text strings.Builder
	for i, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: encode function args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", part.FunctionCall.Name, i)
			}
			out.ToolCalls = append(out.ToolCalls, driven.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
			continue
		}
		text.WriteString(part.Text)
	}
	out.Content = text.String()
	return out, nil
}

func callingMode(c driven.ToolChoice) genai.FunctionCallingConfigMode {
	switch c {
	case driven.ToolChoiceNone:
		return genai.FunctionCallingConfigModeNone
	case driven.ToolChoiceRequired:
		return genai.FunctionCallingConfigModeAny
	default:
		return genai.FunctionCallingConfigModeAuto
	}
}

// toContents maps the conversation to Gemini roles. Tool results become
// function responses on the user side.
func toContents(messages []driven.ChatMessage) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		var role string
		var parts []*genai.Part

		switch m.Role {
		case driven.RoleAssistant:
			role = genai.RoleModel
			if strings.TrimSpace(m.Content) != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
		case driven.RoleTool:
			role = genai.RoleUser
			response := map[string]any{}
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil {
				response = map[string]any{"output": m.Content}
			}
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID: m.ToolCallID, Name: m.Name, Response: response,
			}})
		default:
			role = genai.RoleUser
			if strings.TrimSpace(m.Content) != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
		}

		if len(parts) == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

// toSchema converts a JSON Schema map into the SDK schema type.
func toSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = schemaType(t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if v, ok := toFloat(m["minimum"]); ok {
		s.Minimum = &v
	}
	if v, ok := toFloat(m["maximum"]); ok {
		s.Maximum = &v
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if child, ok := raw.(map[string]any); ok {
				s.Properties[name] = toSchema(child)
			}
		}
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by looking up the model.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
