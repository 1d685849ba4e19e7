package mcp

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// mockRetrieval records the last requests and returns canned outcomes.
type mockRetrieval struct {
	search     domain.SearchOutcome
	expand     domain.ExpandOutcome
	lastSearch domain.SearchRequest
	lastExpand domain.ExpandRequest
}

func (m *mockRetrieval) Search(_ context.Context, req domain.SearchRequest) domain.SearchOutcome {
	m.lastSearch = req
	return m.search
}

func (m *mockRetrieval) Expand(_ context.Context, req domain.ExpandRequest) domain.ExpandOutcome {
	m.lastExpand = req
	return m.expand
}

// mockTenants is a read-only TenantService.
type mockTenants struct {
	tenants []domain.Tenant
	err     error
}

func (m *mockTenants) Create(_ context.Context, t domain.Tenant) (*domain.Tenant, error) {
	return &t, m.err
}

func (m *mockTenants) CreatePersonal(_ context.Context, _, _ string) (*domain.Tenant, error) {
	return nil, m.err
}

func (m *mockTenants) Get(_ context.Context, slug string) (*domain.Tenant, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.tenants {
		if m.tenants[i].Slug == slug {
			return &m.tenants[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTenants) List(_ context.Context) ([]domain.Tenant, error) {
	return m.tenants, m.err
}

func (m *mockTenants) Update(_ context.Context, _, _, _ string) (*domain.Tenant, error) {
	return nil, m.err
}

func (m *mockTenants) SetAcceptedSenders(_ context.Context, _ string, _ []string) (*domain.Tenant, error) {
	return nil, m.err
}

func (m *mockTenants) Delete(_ context.Context, _ string) error { return m.err }

func (m *mockTenants) CheckSlug(_ context.Context, _ string) (bool, error) { return true, m.err }
