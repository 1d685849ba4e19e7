package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestWire_WithoutCredentials(t *testing.T) {
	a, err := wire(context.Background(), t.TempDir(), lookupFrom(nil))
	require.NoError(t, err)
	defer a.Close()

	s := a.services
	assert.NotNil(t, s.Settings)
	assert.NotNil(t, s.Tenants)
	assert.Nil(t, s.Retrieval)
	assert.Nil(t, s.Reply)
	assert.Nil(t, s.Verifier)
	assert.ErrorIs(t, s.Unavailable, domain.ErrConfiguration)

	require.NotNil(t, s.Ingest)
	_, err = s.Ingest.Ingest(context.Background(), "acme", []domain.UploadedFile{{Name: "faq.txt", Content: []byte("hi")}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "UPSTASH_VECTOR_REST_URL")
}

func TestWire_LocalStackWithoutMail(t *testing.T) {
	env := map[string]string{
		"HELPDESK_VECTOR_PROVIDER": "memory",
		"HELPDESK_LLM_PROVIDER":    "ollama",
		"HELPDESK_DB":              ":memory:",
	}
	a, err := wire(context.Background(), t.TempDir(), lookupFrom(env))
	require.NoError(t, err)
	defer a.Close()

	s := a.services
	require.NotNil(t, s.Ingest)
	require.NotNil(t, s.Retrieval)
	assert.Nil(t, s.Reply)
	assert.NotNil(t, s.ReplyWith)
	require.Error(t, s.Unavailable)
	assert.Contains(t, s.Unavailable.Error(), "mail API key")

	ctx := context.Background()
	_, err = s.Tenants.Create(ctx, domain.Tenant{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	result, err := s.Ingest.Ingest(ctx, "acme", []domain.UploadedFile{{
		Name:     "faq.txt",
		MIMEType: "text/plain",
		Content:  []byte("Refunds are issued within five business days."),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)

	outcome := s.Retrieval.Search(ctx, domain.SearchRequest{TenantSlug: "acme", Query: "refunds issued"})
	require.True(t, outcome.Success, outcome.Error)
	require.NotEmpty(t, outcome.Results)
	assert.Contains(t, outcome.Results[0].Content, "five business days")
}

func TestWire_FullStack(t *testing.T) {
	env := map[string]string{
		"HELPDESK_VECTOR_PROVIDER": "memory",
		"HELPDESK_LLM_PROVIDER":    "ollama",
		"AIINBX_API_KEY":           "ak_test",
		"AIINBX_WEBHOOK_SECRET":    "whsec_test",
	}
	dir := t.TempDir()
	a, err := wire(context.Background(), dir, lookupFrom(env))
	require.NoError(t, err)

	s := a.services
	assert.NotNil(t, s.Reply)
	assert.NotNil(t, s.Verifier)
	assert.NoError(t, s.Unavailable)

	// The SQLite tenant store persists across wirings.
	_, err = s.Tenants.Create(context.Background(), domain.Tenant{Slug: "acme"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = wire(context.Background(), dir, lookupFrom(env))
	require.NoError(t, err)
	defer a.Close()
	got, err := a.services.Tenants.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)
}

func TestWire_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeConfig(dir, "not = [valid"))

	_, err := wire(context.Background(), dir, lookupFrom(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
