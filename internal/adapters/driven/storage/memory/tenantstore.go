package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure TenantStore implements the interface.
var _ driven.TenantStore = (*TenantStore)(nil)

// TenantStore is an in-memory implementation of driven.TenantStore.
type TenantStore struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant
}

// NewTenantStore creates a new in-memory tenant store.
func NewTenantStore() *TenantStore {
	return &TenantStore{
		tenants: make(map[string]domain.Tenant),
	}
}

// Save stores or updates a tenant. A slug held by another tenant
// returns domain.ErrAlreadyExists.
func (s *TenantStore) Save(_ context.Context, tenant *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tenants {
		if t.Slug == tenant.Slug && id != tenant.ID {
			return fmt.Errorf("%w: slug %q", domain.ErrAlreadyExists, tenant.Slug)
		}
	}
	t := *tenant
	t.AcceptedSenders = append([]string(nil), tenant.AcceptedSenders...)
	s.tenants[t.ID] = t
	return nil
}

// Get retrieves a tenant by ID.
func (s *TenantStore) Get(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// GetBySlug retrieves a tenant by slug.
func (s *TenantStore) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all tenants ordered by slug.
func (s *TenantStore) List(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

// Delete removes a tenant.
func (s *TenantStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tenants, id)
	return nil
}
