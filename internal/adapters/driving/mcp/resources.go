package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "helpdesk://"

// tenantInfo is the public view of a tenant. Accepted senders are omitted.
type tenantInfo struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tenants",
		Name:        "tenants",
		Description: "Organizations with a knowledge base",
		MIMEType:    "application/json",
	}, s.handleTenantsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tenants/{slug}",
		Name:        "tenant",
		Description: "One organization's profile",
		MIMEType:    "application/json",
	}, s.handleTenantResource)
}

func (s *Server) handleTenantsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []tenantInfo{}
	if s.ports.Tenants != nil {
		tenants, err := s.ports.Tenants.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tenants: %w", err)
		}
		for _, t := range tenants {
			infos = append(infos, tenantInfo{Slug: t.Slug, Name: t.Name, Website: t.Website})
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleTenantResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	slug := strings.TrimPrefix(req.Params.URI, uriScheme+"tenants/")
	if slug == "" || s.ports.Tenants == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	t, err := s.ports.Tenants.Get(ctx, slug)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, tenantInfo{Slug: t.Slug, Name: t.Name, Website: t.Website})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
