package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func readReq(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleTenantsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists tenants without senders", func(t *testing.T) {
		tenants := &mockTenants{tenants: []domain.Tenant{
			{Slug: "acme", Name: "Acme", Website: "https://acme.example", AcceptedSenders: []string{"a@x.com"}},
			{Slug: "globex", Name: "Globex"},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrieval{}, Tenants: tenants})
		require.NoError(t, err)

		res, err := server.handleTenantsResource(ctx, readReq("helpdesk://tenants"))
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		assert.Equal(t, "application/json", res.Contents[0].MIMEType)
		assert.NotContains(t, res.Contents[0].Text, "a@x.com")

		var got []tenantInfo
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		assert.Equal(t, []tenantInfo{
			{Slug: "acme", Name: "Acme", Website: "https://acme.example"},
			{Slug: "globex", Name: "Globex"},
		}, got)
	})

	t.Run("no tenant service gives empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrieval{}})
		require.NoError(t, err)

		res, err := server.handleTenantsResource(ctx, readReq("helpdesk://tenants"))
		require.NoError(t, err)
		assert.Equal(t, "[]", res.Contents[0].Text)
	})

	t.Run("list error", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrieval{}, Tenants: &mockTenants{err: errors.New("db down")}})
		require.NoError(t, err)

		_, err = server.handleTenantsResource(ctx, readReq("helpdesk://tenants"))
		assert.ErrorContains(t, err, "db down")
	})
}

func TestServer_handleTenantResource(t *testing.T) {
	ctx := context.Background()
	tenants := &mockTenants{tenants: []domain.Tenant{{Slug: "acme", Name: "Acme"}}}
	server, err := NewServer(&Ports{Retrieval: &mockRetrieval{}, Tenants: tenants})
	require.NoError(t, err)

	res, err := server.handleTenantResource(ctx, readReq("helpdesk://tenants/acme"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"slug":"acme","name":"Acme"}`, res.Contents[0].Text)

	_, err = server.handleTenantResource(ctx, readReq("helpdesk://tenants/missing"))
	assert.Error(t, err)
}
