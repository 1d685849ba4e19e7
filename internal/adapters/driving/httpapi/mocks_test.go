package httpapi

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

type mockIngest struct {
	result *domain.IngestResult
	err    error
	slug   string
	files  []domain.UploadedFile
}

func (m *mockIngest) Ingest(_ context.Context, slug string, files []domain.UploadedFile) (*domain.IngestResult, error) {
	m.slug = slug
	m.files = files
	return m.result, m.err
}

type mockReply struct {
	outcome *domain.ReplyOutcome
	err     error
	events  []domain.InboundEvent
}

func (m *mockReply) HandleInbound(_ context.Context, event domain.InboundEvent) (*domain.ReplyOutcome, error) {
	m.events = append(m.events, event)
	return m.outcome, m.err
}

type mockTenants struct {
	available bool
	err       error
}

func (m *mockTenants) Create(_ context.Context, t domain.Tenant) (*domain.Tenant, error) {
	return &t, nil
}

func (m *mockTenants) CreatePersonal(_ context.Context, _, _ string) (*domain.Tenant, error) {
	return nil, nil
}

func (m *mockTenants) Get(_ context.Context, _ string) (*domain.Tenant, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTenants) List(_ context.Context) ([]domain.Tenant, error) { return nil, nil }

func (m *mockTenants) Update(_ context.Context, _, _, _ string) (*domain.Tenant, error) {
	return nil, nil
}

func (m *mockTenants) SetAcceptedSenders(_ context.Context, _ string, _ []string) (*domain.Tenant, error) {
	return nil, nil
}

func (m *mockTenants) Delete(_ context.Context, _ string) error { return nil }

func (m *mockTenants) CheckSlug(_ context.Context, _ string) (bool, error) {
	return m.available, m.err
}

// staticVerifier accepts exactly one signature.
type staticVerifier struct {
	signature string
}

func (v staticVerifier) Verify(_ []byte, signature, _ string) bool {
	return signature != "" && signature == v.signature
}
