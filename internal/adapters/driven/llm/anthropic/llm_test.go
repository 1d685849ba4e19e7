package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestLLMService_Chat_ToolUse(t *testing.T) {
	var got messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Let me look that up."},
				{"type": "tool_use", "id": "toolu_1", "name": "searchKnowledgeBase", "input": {"query": "refund"}}
			],
			"stop_reason": "tool_use"
		}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := svc.Chat(context.Background(), driven.ChatRequest{
		System: "system prompt",
		Messages: []driven.ChatMessage{
			{Role: driven.RoleUser, Content: "question"},
			{Role: driven.RoleAssistant, ToolCalls: []driven.ToolCall{{ID: "toolu_0", Name: "searchKnowledgeBase", Arguments: `{"query":"a"}`}}},
			{Role: driven.RoleTool, Content: `{"success":true}`, ToolCallID: "toolu_0"},
			{Role: driven.RoleUser, Content: "reminder"},
		},
		Tools:      []driven.ToolDefinition{{Name: "searchKnowledgeBase", Description: "search"}},
		ToolChoice: driven.ToolChoiceAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, "Let me look that up.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"query":"refund"}`, resp.ToolCalls[0].Arguments)
	assert.Equal(t, "tool_use", resp.FinishReason)

	assert.Equal(t, "system prompt", got.System)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.NotNil(t, got.ToolChoice)
	assert.Equal(t, "auto", got.ToolChoice.Type)
	assert.Equal(t, map[string]any{"type": "object"}, got.Tools[0].InputSchema)

	// tool_result and the following user text merge into one user turn.
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "tool_use", got.Messages[1].Content[0].Type)
	assert.Equal(t, "user", got.Messages[2].Role)
	require.Len(t, got.Messages[2].Content, 2)
	assert.Equal(t, "tool_result", got.Messages[2].Content[0].Type)
	assert.Equal(t, "toolu_0", got.Messages[2].Content[0].ToolUseID)
	assert.Equal(t, "text", got.Messages[2].Content[1].Type)
}

func TestChoiceType(t *testing.T) {
	assert.Equal(t, "auto", choiceType(driven.ToolChoiceAuto))
	assert.Equal(t, "auto", choiceType(""))
	assert.Equal(t, "none", choiceType(driven.ToolChoiceNone))
	assert.Equal(t, "any", choiceType(driven.ToolChoiceRequired))
}

func TestToMessages_SkipsEmpty(t *testing.T) {
	msgs := toMessages([]driven.ChatMessage{
		{Role: driven.RoleUser, Content: "hi"},
		{Role: driven.RoleAssistant, Content: "  "},
		{Role: driven.RoleUser, Content: "again"},
	})
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Content, 2)
}

func TestLLMService_Chat_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad tools"}}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), driven.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad tools")
}
