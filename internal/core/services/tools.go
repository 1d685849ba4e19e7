package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Agent tool names.
const (
	ToolSearchKnowledgeBase = "searchKnowledgeBase"
	ToolGetDetailedInfo     = "getDetailedInfo"
)

// AgentTools returns the functions offered to the reply model.
// The tenant is bound by the loop, so no schema takes an organization slug.
func AgentTools() []driven.ToolDefinition {
	return []driven.ToolDefinition{
		{
			Name: ToolSearchKnowledgeBase,
			Description: "MANDATORY: Search the organization's knowledge base for relevant information. " +
				"You MUST use this tool before answering any email to retrieve accurate information about " +
				"company policies, procedures, documentation, FAQs, product information, or any other content. " +
				"Always call this tool first with a query based on the email content, then use the retrieved " +
				"information to craft your response.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type": "string",
						"description": "REQUIRED: The search query. Extract key topics, questions, or keywords " +
							"from the email to create an effective search query.",
					},
					"topK": map[string]any{
						"type":        "integer",
						"minimum":     domain.MinTopK,
						"maximum":     domain.MaxTopK,
						"default":     domain.DefaultTopK,
						"description": "Number of most relevant results to return (default: 5, max: 20)",
					},
					"includeMetadata": map[string]any{
						"type":        "boolean",
						"default":     true,
						"description": "Whether to include metadata about the source documents",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name: ToolGetDetailedInfo,
			Description: "Get detailed information from a specific search result. Use this when you find an " +
				"interesting result from searchKnowledgeBase and need more context. Retrieves the chunk and " +
				"its adjacent chunks from the same document.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fileName": map[string]any{
						"type":        "string",
						"description": "REQUIRED: The file name from the search result metadata.",
					},
					"chunkIndex": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"description": "REQUIRED: The chunk index from the search result metadata (0-based).",
					},
					"contextChunks": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"maximum":     domain.MaxContextChunks,
						"default":     domain.DefaultContextChunks,
						"description": "Number of adjacent chunks to retrieve before and after (default: 2, max: 5)",
					},
				},
				"required": []string{"fileName", "chunkIndex"},
			},
		},
	}
}

// searchArgs are the decoded searchKnowledgeBase arguments.
// Numbers decode as float64 because models often emit 5.0 for integers.
type searchArgs struct {
	Query           string   `json:"query"`
	TopK            *float64 `json:"topK"`
	IncludeMetadata *bool    `json:"includeMetadata"`
}

type expandArgs struct {
	FileName      string   `json:"fileName"`
	ChunkIndex    *float64 `json:"chunkIndex"`
	ContextChunks *float64 `json:"contextChunks"`
}

// ToolResult is one executed tool call.
type ToolResult struct {
	// Name is the tool that ran.
	Name string

	// Content is the JSON outcome handed back to the model.
	Content string

	// Search reports whether the call was a knowledge-base search.
	Search bool
}

// ToolExecutor runs agent tool calls against one tenant namespace.
type ToolExecutor struct {
	retrieval driving.RetrievalService
	slug      string
}

// NewToolExecutor binds the tools to a tenant.
func NewToolExecutor(retrieval driving.RetrievalService, slug string) *ToolExecutor {
	return &ToolExecutor{retrieval: retrieval, slug: slug}
}

// Execute runs one call. Unknown tools and missing fields produce a
// structured failure the model can read. Undecodable arguments are a
// generation failure.
func (e *ToolExecutor) Execute(ctx context.Context, call driven.ToolCall) (ToolResult, error) {
	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}

	switch call.Name {
	case ToolSearchKnowledgeBase:
		var args searchArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return ToolResult{}, fmt.Errorf("%w: malformed %s arguments: %v", domain.ErrGenerationFailed, call.Name, err)
		}
		outcome := e.retrieval.Search(ctx, domain.SearchRequest{
			TenantSlug:      e.slug,
			Query:           args.Query,
			TopK:            toInt(args.TopK),
			IncludeMetadata: args.IncludeMetadata,
		})
		return ToolResult{Name: call.Name, Content: mustJSON(outcome), Search: true}, nil

	case ToolGetDetailedInfo:
		var args expandArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return ToolResult{}, fmt.Errorf("%w: malformed %s arguments: %v", domain.ErrGenerationFailed, call.Name, err)
		}
		if args.ChunkIndex == nil {
			return ToolResult{Name: call.Name, Content: failureJSON("chunkIndex is required")}, nil
		}
		outcome := e.retrieval.Expand(ctx, domain.ExpandRequest{
			TenantSlug:    e.slug,
			FileName:      args.FileName,
			ChunkIndex:    *toInt(args.ChunkIndex),
			ContextChunks: toInt(args.ContextChunks),
		})
		return ToolResult{Name: call.Name, Content: mustJSON(outcome)}, nil

	default:
		return ToolResult{Name: call.Name, Content: failureJSON(fmt.Sprintf("unknown tool %q", call.Name))}, nil
	}
}

func toInt(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(math.Round(*f))
	return &v
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return failureJSON(err.Error())
	}
	return string(b)
}

func failureJSON(msg string) string {
	b, _ := json.Marshal(map[string]any{"success": false, "error": msg})
	return string(b)
}
