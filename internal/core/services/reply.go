package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure ReplyService implements the interfaces.
var (
	_ driving.ReplyService    = (*ReplyService)(nil)
	_ driven.PromptStoreAware = (*ReplyService)(nil)
)

// ReplyConfig tunes the reply loop.
type ReplyConfig struct {
	// HelpdeskDomain hosts the tenant mailboxes replies are sent from.
	HelpdeskDomain string

	// MaxSteps bounds tool-requesting model round-trips per turn.
	MaxSteps int

	// MaxTokens caps each completion.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// DedupTTL is how long a handled message id is remembered.
	DedupTTL time.Duration
}

// DefaultReplyConfig returns the standard loop settings.
func DefaultReplyConfig() ReplyConfig {
	return ReplyConfig{
		HelpdeskDomain: domain.DefaultHelpdeskDomain,
		MaxSteps:       10,
		MaxTokens:      2048,
		Temperature:    0.2,
		DedupTTL:       24 * time.Hour,
	}
}

// ReplyService answers inbound helpdesk emails with a bounded,
// retrieval-grounded tool-calling loop.
type ReplyService struct {
	tenants   driven.TenantStore
	retrieval driving.RetrievalService
	llm       driven.LLMService
	mail      driven.MailProvider
	ledger    driven.ReplyLedger
	prompts   driven.PromptStore
	cfg       ReplyConfig
}

// NewReplyService creates a new reply service.
func NewReplyService(
	tenants driven.TenantStore,
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	mail driven.MailProvider,
	cfg ReplyConfig,
) *ReplyService {
	def := DefaultReplyConfig()
	if cfg.HelpdeskDomain == "" {
		cfg.HelpdeskDomain = def.HelpdeskDomain
	}
	if cfg.MaxSteps < 0 {
		cfg.MaxSteps = def.MaxSteps
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = def.DedupTTL
	}
	return &ReplyService{
		tenants:   tenants,
		retrieval: retrieval,
		llm:       llm,
		mail:      mail,
		cfg:       cfg,
	}
}

// SetReplyLedger enables duplicate suppression for transport retries.
func (s *ReplyService) SetReplyLedger(ledger driven.ReplyLedger) {
	s.ledger = ledger
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *ReplyService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// turn is the state of one inbound-message-to-reply cycle.
type turn struct {
	id       string
	tenant   *domain.Tenant
	email    domain.InboundEmail
	thread   *domain.Thread
	system   string
	messages []driven.ChatMessage
	steps    int
	searched bool
	reminded bool
	outputs  []ToolResult
}

// HandleInbound runs guards, the tool phase, composition, sanitising and
// delivery for one inbound email.
func (s *ReplyService) HandleInbound(ctx context.Context, event domain.InboundEvent) (*domain.ReplyOutcome, error) {
	turnID := uuid.NewString()
	email := event.Email

	if !event.Verified {
		return s.reject(turnID, "", domain.ErrInvalidSignature)
	}

	tenant, err := s.resolveTenant(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return s.reject(turnID, "", err)
		}
		return nil, err
	}

	sender := domain.NormaliseAddress(email.FromAddress)
	if sender == "" {
		return s.reject(turnID, tenant.Slug, fmt.Errorf("%w: sender email is required", domain.ErrSenderNotAccepted))
	}
	if !tenant.AcceptsSender(sender) {
		return s.reject(turnID, tenant.Slug,
			fmt.Errorf("%w: %s is not in the accepted senders list", domain.ErrSenderNotAccepted, sender))
	}

	if s.llm == nil {
		return nil, fmt.Errorf("%w: language model is not configured", domain.ErrConfiguration)
	}
	if s.mail == nil {
		return nil, fmt.Errorf("%w: mail provider is not configured", domain.ErrConfiguration)
	}

	log := logger.With("turn", turnID, "tenant", tenant.Slug, "email", email.ID)

	key := ledgerKey(email)
	if s.ledger != nil && key != "" {
		claimed, err := s.ledger.Claim(ctx, key, s.cfg.DedupTTL)
		if err != nil {
			log.Warnf("reply ledger unavailable, continuing without dedup: %v", err)
		} else if !claimed {
			log.Infof("duplicate inbound message skipped")
			return &domain.ReplyOutcome{TurnID: turnID, Status: domain.ReplyStatusDuplicate, TenantSlug: tenant.Slug}, nil
		}
	}

	outcome, err := s.answer(ctx, turnID, tenant, email)
	if err != nil {
		log.Errorf("reply failed: %v", err)
		if s.ledger != nil && key != "" {
			if rerr := s.ledger.Release(context.WithoutCancel(ctx), key); rerr != nil {
				log.Warnf("release ledger claim: %v", rerr)
			}
		}
		return nil, err
	}

	log.Infof("reply sent after %d tool steps", outcome.Steps)
	return outcome, nil
}

func (s *ReplyService) answer(
	ctx context.Context, turnID string, tenant *domain.Tenant, email domain.InboundEmail,
) (*domain.ReplyOutcome, error) {
	t := &turn{id: turnID, tenant: tenant, email: email}

	if email.ThreadID != "" {
		thread, err := s.mail.Thread(ctx, email.ThreadID)
		if err != nil {
			logger.Warn("turn %s: thread %s unavailable, continuing without history: %v", turnID, email.ThreadID, err)
		} else {
			t.thread = thread
		}
	}

	body, err := s.compose(ctx, t)
	if err != nil {
		return nil, err
	}

	html := Sanitize(body)
	if html == "" {
		return nil, fmt.Errorf("%w: model returned an empty reply", domain.ErrGenerationFailed)
	}

	reply := domain.OutgoingReply{From: tenant.Mailbox(s.cfg.HelpdeskDomain), HTML: html}
	if err := s.mail.Reply(ctx, email.ID, reply); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	return &domain.ReplyOutcome{
		TurnID:     turnID,
		Status:     domain.ReplyStatusSent,
		TenantSlug: tenant.Slug,
		Steps:      t.steps,
		Searched:   t.searched,
		Reply:      &reply,
	}, nil
}

// compose runs the tool phase and returns the model's final body.
func (s *ReplyService) compose(ctx context.Context, t *turn) (string, error) {
	data := PromptData{
		OrganizationName: t.tenant.Name,
		Website:          t.tenant.Website,
		Slug:             t.tenant.Slug,
		ThreadHistory:    FormatThread(t.thread, t.email.ID),
		Email:            FormatEmail(t.email),
		MaxSteps:         s.cfg.MaxSteps,
	}
	if data.OrganizationName == "" {
		data.OrganizationName = t.tenant.Slug
	}

	system, err := renderPrompt(s.prompts, driven.PromptReplySystem, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	task, err := renderPrompt(s.prompts, driven.PromptReplyTask, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	t.system = system
	t.messages = []driven.ChatMessage{{Role: driven.RoleUser, Content: task}}

	exec := NewToolExecutor(s.retrieval, t.tenant.Slug)

	for t.steps < s.cfg.MaxSteps {
		resp, err := s.chat(ctx, t, driven.ToolChoiceAuto)
		if err != nil {
			return "", err
		}

		if resp.HasToolCalls() {
			t.steps++
			t.messages = append(t.messages, driven.ChatMessage{
				Role:      driven.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			for _, call := range resp.ToolCalls {
				logger.Debug("turn %s step %d: %s(%s)", t.id, t.steps, call.Name, call.Arguments)
				res, err := exec.Execute(ctx, call)
				if err != nil {
					return "", err
				}
				if res.Search {
					t.searched = true
				}
				t.outputs = append(t.outputs, res)
				t.messages = append(t.messages, driven.ChatMessage{
					Role:       driven.RoleTool,
					Content:    res.Content,
					ToolCallID: call.ID,
					Name:       call.Name,
				})
			}
			continue
		}

		if t.searched {
			return resp.Content, nil
		}
		if t.reminded {
			break
		}

		// The model answered without searching; ask once more.
		t.reminded = true
		reminder, err := renderPrompt(s.prompts, driven.PromptSearchReminder, data)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		logger.Debug("turn %s: answer before search, sending reminder", t.id)
		if strings.TrimSpace(resp.Content) != "" {
			t.messages = append(t.messages, driven.ChatMessage{Role: driven.RoleAssistant, Content: resp.Content})
		}
		t.messages = append(t.messages, driven.ChatMessage{Role: driven.RoleUser, Content: reminder})
	}

	if !t.searched {
		s.fallbackSearch(ctx, t)
	}

	logger.Debug("turn %s: composing with tools disabled after %d steps", t.id, t.steps)
	resp, err := s.chat(ctx, t, driven.ToolChoiceNone)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// fallbackSearch runs the search the model never made, using the email
// itself as the query, and hands the results to the model.
func (s *ReplyService) fallbackSearch(ctx context.Context, t *turn) {
	query := strings.TrimSpace(t.email.Subject + "\n" + emailBody(t.email))
	outcome := s.retrieval.Search(ctx, domain.SearchRequest{TenantSlug: t.tenant.Slug, Query: query})
	content := mustJSON(outcome)

	logger.Debug("turn %s: fallback search returned %d results", t.id, outcome.TotalResults)
	t.searched = true
	t.outputs = append(t.outputs, ToolResult{Name: ToolSearchKnowledgeBase, Content: content, Search: true})
	t.messages = append(t.messages, driven.ChatMessage{
		Role: driven.RoleUser,
		Content: "Knowledge base search results for this email:\n" + content +
			"\n\nWrite the HTML reply using only the \"content\" fields above.",
	})
}

func (s *ReplyService) chat(ctx context.Context, t *turn, choice driven.ToolChoice) (*driven.ChatResponse, error) {
	resp, err := s.llm.Chat(ctx, driven.ChatRequest{
		System:      t.system,
		Messages:    t.messages,
		Tools:       AgentTools(),
		ToolChoice:  choice,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrGenerationFailed)
	}
	return resp, nil
}

// resolveTenant maps the first recipient's local part to a tenant.
func (s *ReplyService) resolveTenant(ctx context.Context, email domain.InboundEmail) (*domain.Tenant, error) {
	if len(email.ToAddresses) == 0 || strings.TrimSpace(email.ToAddresses[0]) == "" {
		return nil, fmt.Errorf("%w: to address is required", domain.ErrOrganizationNotFound)
	}
	slug := domain.SlugFromAddress(email.ToAddresses[0])
	if err := domain.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("%w: invalid email address %q", domain.ErrOrganizationNotFound, email.ToAddresses[0])
	}
	if s.tenants == nil {
		return nil, fmt.Errorf("%w: tenant store is not configured", domain.ErrConfiguration)
	}

	tenant, err := s.tenants.GetBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrganizationNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("look up tenant %s: %w", slug, err)
	}
	return tenant, nil
}

func (s *ReplyService) reject(turnID, slug string, reason error) (*domain.ReplyOutcome, error) {
	logger.With("turn", turnID, "tenant", slug).Warnf("inbound message rejected: %v", reason)
	return &domain.ReplyOutcome{
		TurnID:     turnID,
		Status:     domain.ReplyStatusRejected,
		Reason:     reason,
		TenantSlug: slug,
	}, nil
}

func ledgerKey(e domain.InboundEmail) string {
	switch {
	case e.ID != "":
		return "helpdesk:reply:" + e.ID
	case e.MessageID != "":
		return "helpdesk:reply:" + e.MessageID
	default:
		return ""
	}
}
