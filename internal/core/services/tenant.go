package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Ensure TenantService implements the interface.
var _ driving.TenantService = (*TenantService)(nil)

// TenantService manages tenants and their sender policies.
type TenantService struct {
	store driven.TenantStore
	now   func() time.Time
}

// NewTenantService creates a new tenant service.
func NewTenantService(store driven.TenantStore) *TenantService {
	return &TenantService{store: store, now: time.Now}
}

// Create adds a tenant. The slug must be valid and unused.
func (s *TenantService) Create(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	if err := domain.ValidateSlug(tenant.Slug); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBySlug(ctx, tenant.Slug); err == nil {
		return nil, fmt.Errorf("%w: slug %s", domain.ErrAlreadyExists, tenant.Slug)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	senders, err := normaliseSenders(tenant.AcceptedSenders)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if strings.TrimSpace(tenant.Name) == "" {
		tenant.Name = tenant.Slug
	}
	tenant.AcceptedSenders = senders
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	if err := s.store.Save(ctx, &tenant); err != nil {
		return nil, fmt.Errorf("save tenant %s: %w", tenant.Slug, err)
	}
	return &tenant, nil
}

// CreatePersonal bootstraps the personal workspace for a new user.
func (s *TenantService) CreatePersonal(ctx context.Context, userID, name string) (*domain.Tenant, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if name == "" {
		name = "Personal"
	}
	return s.Create(ctx, domain.Tenant{Slug: domain.PersonalSlug(userID), Name: name})
}

// Get retrieves a tenant by slug.
func (s *TenantService) Get(ctx context.Context, slug string) (*domain.Tenant, error) {
	return s.store.GetBySlug(ctx, slug)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.store.List(ctx)
}

// Update changes a tenant's name and website. Empty values keep the current ones.
func (s *TenantService) Update(ctx context.Context, slug, name, website string) (*domain.Tenant, error) {
	tenant, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		tenant.Name = name
	}
	if website = strings.TrimSpace(website); website != "" {
		tenant.Website = website
	}
	return s.save(ctx, tenant)
}

// SetAcceptedSenders replaces the sender allow-list. An empty list accepts everyone.
func (s *TenantService) SetAcceptedSenders(ctx context.Context, slug string, senders []string) (*domain.Tenant, error) {
	tenant, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	normalised, err := normaliseSenders(senders)
	if err != nil {
		return nil, err
	}
	tenant.AcceptedSenders = normalised
	return s.save(ctx, tenant)
}

// Delete removes a tenant. Its vectors are left in place.
func (s *TenantService) Delete(ctx context.Context, slug string) error {
	tenant, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, tenant.ID)
}

// CheckSlug reports whether a slug is unused. Invalid slugs return ErrBadRequest.
func (s *TenantService) CheckSlug(ctx context.Context, slug string) (bool, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return false, err
	}
	_, err := s.store.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}

func (s *TenantService) save(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	tenant.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, tenant); err != nil {
		return nil, fmt.Errorf("save tenant %s: %w", tenant.Slug, err)
	}
	return tenant, nil
}

// normaliseSenders lowercases, validates and de-duplicates addresses.
func normaliseSenders(senders []string) ([]string, error) {
	seen := make(map[string]bool, len(senders))
	out := make([]string, 0, len(senders))
	for _, raw := range senders {
		addr := domain.NormaliseAddress(raw)
		if addr == "" || seen[addr] {
			continue
		}
		parsed, err := mail.ParseAddress(addr)
		if err != nil || parsed.Address != addr {
			return nil, fmt.Errorf("%w: invalid sender address %q", domain.ErrInvalidInput, raw)
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}
