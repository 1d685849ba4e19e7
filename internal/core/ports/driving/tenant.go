package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// TenantService manages helpdesk tenants.
type TenantService interface {
	// Create adds a tenant. The slug must be valid and unused.
	Create(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error)

	// CreatePersonal bootstraps the personal workspace for a new user.
	CreatePersonal(ctx context.Context, userID, name string) (*domain.Tenant, error)

	// Get retrieves a tenant by slug.
	Get(ctx context.Context, slug string) (*domain.Tenant, error)

	// List returns all tenants.
	List(ctx context.Context) ([]domain.Tenant, error)

	// Update changes a tenant's name and website.
	Update(ctx context.Context, slug, name, website string) (*domain.Tenant, error)

	// SetAcceptedSenders replaces the sender allow-list.
	SetAcceptedSenders(ctx context.Context, slug string, senders []string) (*domain.Tenant, error)

	// Delete removes a tenant.
	Delete(ctx context.Context, slug string) error

	// CheckSlug reports whether a slug is valid and unused.
	CheckSlug(ctx context.Context, slug string) (bool, error)
}
