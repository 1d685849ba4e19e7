package cli

import (
	"bytes"
	"context"
	"strings"
	"time"


	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
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
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{Upserted: len(files), FilesProcessed: len(files), Errors: []string{}}, nil
}

type mockRetrieval struct {
	searchReq domain.SearchRequest
	expandReq domain.ExpandRequest
	search    domain.SearchOutcome
	expand    domain.ExpandOutcome
}

func (m *mockRetrieval) Search(_ context.Context, req domain.SearchRequest) domain.SearchOutcome {
	m.searchReq = req
	return m.search
}

func (m *mockRetrieval) Expand(_ context.Context, req domain.ExpandRequest) domain.ExpandOutcome {
	m.expandReq = req
	return m.expand
}

type mockReply struct {
	outcome *domain.ReplyOutcome
	err     error
	events  []domain.InboundEvent
	mail    driven.MailProvider
}

func (m *mockReply) HandleInbound(ctx context.Context, event domain.InboundEvent) (*domain.ReplyOutcome, error) {
	m.events = append(m.events, event)
	if m.err != nil {
		return nil, m.err
	}
	if m.mail != nil && m.outcome.Sent() {
		if err := m.mail.Reply(ctx, event.Email.ID, domain.OutgoingReply{
			From: "acme@" + domain.DefaultHelpdeskDomain,
			HTML: "<p>Refunds take 5 days.</p>",
		}); err != nil {
			return nil, err
		}
	}
	return m.outcome, nil
}

type mockTenants struct {
	tenants map[string]*domain.Tenant
}

func newMockTenants() *mockTenants {
	return &mockTenants{tenants: map[string]*domain.Tenant{
		"acme": {ID: "t1", Slug: "acme", Name: "Acme", Website: "https://acme.example"},
	}}
}

func (m *mockTenants) Create(_ context.Context, t domain.Tenant) (*domain.Tenant, error) {
	if err := domain.ValidateSlug(t.Slug); err != nil {
		return nil, err
	}
	if _, ok := m.tenants[t.Slug]; ok {
		return nil, domain.ErrAlreadyExists
	}
	if t.Name == "" {
		t.Name = t.Slug
	}
	t.ID = "t-" + t.Slug
	m.tenants[t.Slug] = &t
	return &t, nil
}

func (m *mockTenants) CreatePersonal(ctx context.Context, userID, name string) (*domain.Tenant, error) {
	return m.Create(ctx, domain.Tenant{Slug: domain.PersonalSlug(userID), Name: name})
}

func (m *mockTenants) Get(_ context.Context, slug string) (*domain.Tenant, error) {
	t, ok := m.tenants[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (m *mockTenants) List(_ context.Context) ([]domain.Tenant, error) {
	out := make([]domain.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTenants) Update(ctx context.Context, slug, name, website string) (*domain.Tenant, error) {
	t, err := m.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if name != "" {
		t.Name = name
	}
	if website != "" {
		t.Website = website
	}
	return t, nil
}

func (m *mockTenants) SetAcceptedSenders(ctx context.Context, slug string, senders []string) (*domain.Tenant, error) {
	t, err := m.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	t.AcceptedSenders = senders
	return t, nil
}

func (m *mockTenants) Delete(_ context.Context, slug string) error {
	if _, ok := m.tenants[slug]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tenants, slug)
	return nil
}

func (m *mockTenants) CheckSlug(_ context.Context, slug string) (bool, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return false, err
	}
	_, taken := m.tenants[slug]
	return !taken, nil
}

type mockSettings struct {
	settings    domain.Settings
	validateErr error
	set         map[string]any
	llm         []string
	vector      []string
}

func newMockSettings() *mockSettings {
	s := domain.DefaultSettings()
	s.Vector.URL = "https://vec.example"
	s.Vector.Token = "upstash-token-123456"
	s.LLM.APIKey = "sk-or-1234567890"
	s.Agent.DedupTTL = time.Hour
	return &mockSettings{settings: s, set: map[string]any{}}
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Set(key string, value any) error {
	m.set[key] = value
	return nil
}

func (m *mockSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	if !p.IsValid() {
		return domain.ErrInvalidInput
	}
	m.llm = []string{p.String(), model, apiKey}
	return nil
}

func (m *mockSettings) SetVectorProvider(p domain.VectorProvider, url, token string) error {
	m.vector = []string{p.String(), url, token}
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

func (m *mockSettings) GetDefaults() domain.Settings { return domain.DefaultSettings() }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngest
	retrieval *mockRetrieval
	reply     *mockReply
	tenants   *mockTenants
	settings  *mockSettings
}

func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest:    &mockIngest{},
		retrieval: &mockRetrieval{},
		reply:     &mockReply{outcome: &domain.ReplyOutcome{Status: domain.ReplyStatusSent, TenantSlug: "acme", Steps: 2}},
		tenants:   newMockTenants(),
		settings:  newMockSettings(),
	}
	SetServices(Services{
		Ingest:    ts.ingest,
		Retrieval: ts.retrieval,
		Reply:     ts.reply,
		Tenants:   ts.tenants,
		Settings:  ts.settings,
		ReplyWith: func(mail driven.MailProvider) driving.ReplyService {
			ts.reply.mail = mail
			return ts.reply
		},
	})
	return ts, func() {
		SetServices(Services{})
		resetFlags()
	}
}

func resetFlags() {
	verbose = false
	jsonOutput = false
	searchTopK = domain.DefaultTopK
	searchNoMetadata = false
	expandContext = domain.DefaultContextChunks
	tenantName, tenantWebsite, tenantSenders, sendersClear = "", "", nil, false
	replyEML, replyDryRun = "", false
	settingsPing = false
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	return executeWithInput("", args...)
}

func executeWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

