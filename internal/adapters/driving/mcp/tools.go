package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Tool names.
const (
	ToolSearch = "search_knowledge_base"
	ToolExpand = "get_detailed_info"
)

// SearchInput is the input schema for search_knowledge_base.
type SearchInput struct {
	OrganizationSlug string `json:"organizationSlug" jsonschema:"slug of the organization whose knowledge base to search"`
	Query            string `json:"query" jsonschema:"the question or keywords to search for"`
	TopK             *int   `json:"topK,omitempty" jsonschema:"number of results, 1 to 20 (default 5)"`
	IncludeMetadata  *bool  `json:"includeMetadata,omitempty" jsonschema:"include file name and chunk index (default true)"`
}

// ExpandInput is the input schema for get_detailed_info.
type ExpandInput struct {
	OrganizationSlug string `json:"organizationSlug" jsonschema:"slug of the organization"`
	FileName         string `json:"fileName" jsonschema:"fileName from a search result's metadata"`
	ChunkIndex       int    `json:"chunkIndex" jsonschema:"chunkIndex from a search result's metadata"`
	ContextChunks    *int   `json:"contextChunks,omitempty" jsonschema:"neighbouring chunks on each side, 0 to 5 (default 2)"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolSearch,
		Description: "Search an organization's knowledge base for passages relevant to a question. " +
			"Returns ranked results with content and source metadata.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolExpand,
		Description: "Get a search result together with its neighbouring chunks from the same file, " +
			"for more context around a promising result.",
	}, s.handleExpand)
}

// handleSearch reports failures in the outcome rather than as tool errors,
// matching what the reply agent sees.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, domain.SearchOutcome, error) {
	out := s.ports.Retrieval.Search(ctx, domain.SearchRequest{
		TenantSlug:      input.OrganizationSlug,
		Query:           input.Query,
		TopK:            input.TopK,
		IncludeMetadata: input.IncludeMetadata,
	})
	logger.Debug("mcp: %s org=%s results=%d success=%v", ToolSearch, input.OrganizationSlug, out.TotalResults, out.Success)
	return nil, out, nil
}

func (s *Server) handleExpand(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExpandInput,
) (*mcp.CallToolResult, domain.ExpandOutcome, error) {
	out := s.ports.Retrieval.Expand(ctx, domain.ExpandRequest{
		TenantSlug:    input.OrganizationSlug,
		FileName:      input.FileName,
		ChunkIndex:    input.ChunkIndex,
		ContextChunks: input.ContextChunks,
	})
	logger.Debug("mcp: %s org=%s file=%s chunks=%d", ToolExpand, input.OrganizationSlug, input.FileName, out.ChunksRetrieved)
	return nil, out, nil
}
