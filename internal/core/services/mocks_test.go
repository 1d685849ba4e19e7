package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorStore keeps records per namespace and scores queries by
// counting shared words, which is enough to order results in tests.
type mockVectorStore struct {
	mu         sync.Mutex
	namespaces map[string]map[string]driven.VectorRecord
	upserts    int
	upsertErr  error
	queryErr   error
	fetchErr   map[string]error
	matches    []driven.VectorMatch
	lastQuery  driven.VectorQuery
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{
		namespaces: make(map[string]map[string]driven.VectorRecord),
		fetchErr:   make(map[string]error),
	}
}

func (m *mockVectorStore) Upsert(_ context.Context, ns string, records []driven.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	if m.namespaces[ns] == nil {
		m.namespaces[ns] = make(map[string]driven.VectorRecord)
	}
	for _, r := range records {
		m.namespaces[ns][r.ID] = r
	}
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, ns string, q driven.VectorQuery) ([]driven.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.matches != nil {
		return m.matches, nil
	}

	words := strings.Fields(strings.ToLower(q.Data))
	var out []driven.VectorMatch
	for _, r := range m.namespaces[ns] {
		var score float64
		content := strings.ToLower(r.Data)
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		match := driven.VectorMatch{ID: r.ID, Score: score / float64(len(words)), Data: r.Data}
		if q.IncludeMetadata {
			match.Metadata = r.Metadata
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}

func (m *mockVectorStore) Fetch(
	_ context.Context, ns string, ids []string, _ driven.FetchOptions,
) ([]*driven.VectorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*driven.VectorRecord, len(ids))
	for i, id := range ids {
		if err := m.fetchErr[id]; err != nil {
			return nil, err
		}
		if r, ok := m.namespaces[ns][id]; ok {
			out[i] = &r
		}
	}
	return out, nil
}

func (m *mockVectorStore) Close() error { return nil }

func (m *mockVectorStore) count(ns string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.namespaces[ns])
}

func (m *mockVectorStore) record(ns, id string) (driven.VectorRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.namespaces[ns][id]
	return r, ok
}

// mockExtractor returns canned text per file name.
type mockExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (m *mockExtractor) Extract(_ context.Context, file domain.UploadedFile) (string, error) {
	if err, ok := m.errs[file.Name]; ok {
		return "", err
	}
	if text, ok := m.texts[file.Name]; ok {
		return text, nil
	}
	return string(file.Content), nil
}

// mockChunker splits on blank lines.
type mockChunker struct {
	truncated bool
}

func (m *mockChunker) Name() string { return "mock" }

func (m *mockChunker) Split(text string) driven.SplitResult {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(part); p != "" {
			chunks = append(chunks, p)
		}
	}
	return driven.SplitResult{Chunks: chunks, Truncated: m.truncated}
}

// mockLLM replays scripted responses and records every request.
type mockLLM struct {
	mu        sync.Mutex
	responses []*driven.ChatResponse
	err       error
	requests  []driven.ChatRequest
}

func (m *mockLLM) Chat(_ context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]driven.ChatMessage, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &driven.ChatResponse{Content: "<p>default</p>", FinishReason: "stop"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockLLM) request(i int) driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

// mockMail records sent replies.
type mockMail struct {
	mu        sync.Mutex
	thread    *domain.Thread
	threadErr error
	replyErr  error
	sent      []sentReply
}

type sentReply struct {
	emailID string
	reply   domain.OutgoingReply
}

func (m *mockMail) Thread(_ context.Context, threadID string) (*domain.Thread, error) {
	if m.threadErr != nil {
		return nil, m.threadErr
	}
	if m.thread == nil {
		return nil, domain.ErrNotFound
	}
	return m.thread, nil
}

func (m *mockMail) Reply(_ context.Context, emailID string, reply domain.OutgoingReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replyErr != nil {
		return m.replyErr
	}
	m.sent = append(m.sent, sentReply{emailID: emailID, reply: reply})
	return nil
}

// mockTenantStore is a map-backed tenant store.
type mockTenantStore struct {
	mu      sync.Mutex
	tenants map[string]domain.Tenant
	err     error
}

func newMockTenantStore(tenants ...domain.Tenant) *mockTenantStore {
	s := &mockTenantStore{tenants: make(map[string]domain.Tenant)}
	for _, t := range tenants {
		if t.ID == "" {
			t.ID = "id-" + t.Slug
		}
		s.tenants[t.ID] = t
	}
	return s
}

func (m *mockTenantStore) Save(_ context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tenants[t.ID] = *t
	return nil
}

func (m *mockTenantStore) Get(_ context.Context, id string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *mockTenantStore) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTenantStore) List(_ context.Context) ([]domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *mockTenantStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tenants, id)
	return nil
}

// mockLedger is an in-memory claim set.
type mockLedger struct {
	mu       sync.Mutex
	claimed  map[string]bool
	err      error
	released []string
}

func newMockLedger() *mockLedger {
	return &mockLedger{claimed: make(map[string]bool)}
}

func (m *mockLedger) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

func (m *mockLedger) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, key)
	m.released = append(m.released, key)
	return nil
}

func (m *mockLedger) Close() error { return nil }

// mockPromptStore serves prompt overrides from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("prompt not found")
}

func (m *mockPromptStore) Reload() {}
