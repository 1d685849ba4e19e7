package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// TenantStore persists tenants.
type TenantStore interface {
	// Save creates or updates a tenant.
	Save(ctx context.Context, tenant *domain.Tenant) error

	// Get retrieves a tenant by ID.
	Get(ctx context.Context, id string) (*domain.Tenant, error)

	// GetBySlug retrieves a tenant by slug.
	// Returns domain.ErrNotFound when absent.
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)

	// List returns all tenants ordered by slug.
	List(ctx context.Context) ([]domain.Tenant, error)

	// Delete removes a tenant by ID.
	Delete(ctx context.Context, id string) error
}
