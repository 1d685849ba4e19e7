package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/config/file"
	memoryledger "github.com/custodia-labs/helpdesk/internal/adapters/driven/ledger/memory"
	redisledger "github.com/custodia-labs/helpdesk/internal/adapters/driven/ledger/redis"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/mail/aiinbx"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/ratelimit"
	memorystore "github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/helpdesk/internal/chunker"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/core/services"
	"github.com/custodia-labs/helpdesk/internal/extractors"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// tenantDBName is the SQLite file created under the config directory.
const tenantDBName = "helpdesk.db"

// app is the wired application and the resources it must release.
type app struct {
	services cli.Services
	closers  []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// wire builds every service the configuration allows. Only a broken config
// file or tenant database is fatal; missing provider credentials leave the
// dependent services nil and are reported through Services.Unavailable.
func wire(ctx context.Context, configDir string, lookup func(string) (string, bool)) (*app, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir, file.WithEnv(file.DefaultEnvBindings(), lookup))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	a := &app{}
	a.services.Settings = settingsService
	a.services.ValidateProviders = func(cmd *cobra.Command) error {
		if err := ai.ValidateLLMConfig(cmd.Context(), &settings.LLM); err != nil {
			return err
		}
		return ai.ValidateEmbeddingConfig(cmd.Context(), &settings.Embedding)
	}

	tenants, err := openTenantStore(a, configDir, settings.Storage.TenantDBPath)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.services.Tenants = services.NewTenantService(tenants)

	if settings.Mail.WebhookSecret != "" {
		a.services.Verifier = aiinbx.NewVerifier(settings.Mail.WebhookSecret)
	}

	registry := extractors.NewDefaultRegistry(extractors.WithMaxFileBytes(settings.Ingest.MaxFileBytes))
	splitter := chunker.New(
		chunker.WithMaxChunkChars(settings.Ingest.MaxChunkChars),
		chunker.WithMaxChunks(settings.Ingest.MaxChunks),
	)

	index, err := ai.CreateIndex(ctx, settings)
	if err != nil {
		logger.Debug("wire: knowledge base unavailable: %v", err)
		a.services.Unavailable = err
		// Uploads still reach the service so callers see its configuration error.
		a.services.Ingest = services.NewIngestService(registry, splitter, nil)
		return a, nil
	}
	a.closers = append(a.closers, index.Close)

	retrieval := services.NewRetrievalService(index.Store)
	a.services.Ingest = services.NewIngestService(registry, splitter, index.Store)
	a.services.Retrieval = retrieval

	if err := wireReply(ctx, a, settings, configDir, tenants, retrieval); err != nil {
		logger.Debug("wire: replies unavailable: %v", err)
		a.services.Unavailable = err
	}
	return a, nil
}

// wireReply builds the reply service and the dry-run factory.
func wireReply(
	ctx context.Context,
	a *app,
	settings *domain.Settings,
	configDir string,
	tenants driven.TenantStore,
	retrieval driving.RetrievalService,
) error {
	llmLimiter := ratelimit.New(0, 1)
	llm, err := ai.CreateLLMService(ctx, &settings.LLM, llmLimiter.Transport(nil))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, llm.Close)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"), services.DefaultPrompts())
	if err != nil {
		return err
	}
	ledger := openLedger(ctx, settings.Storage)
	a.closers = append(a.closers, ledger.Close)

	cfg := services.ReplyConfig{
		HelpdeskDomain: settings.Mail.HelpdeskDomain,
		MaxSteps:       settings.Agent.MaxSteps,
		MaxTokens:      settings.LLM.MaxTokens,
		Temperature:    settings.LLM.Temperature,
		DedupTTL:       settings.Agent.DedupTTL,
	}
	build := func(mail driven.MailProvider, ledger driven.ReplyLedger) *services.ReplyService {
		svc := services.NewReplyService(tenants, retrieval, llm, mail, cfg)
		if ledger != nil {
			svc.SetReplyLedger(ledger)
		}
		svc.SetPromptStore(prompts)
		return svc
	}
	// Dry runs leave the ledger untouched so the live service can still claim the id.
	a.services.ReplyWith = func(mail driven.MailProvider) driving.ReplyService {
		return build(mail, nil)
	}

	if !settings.Mail.IsConfigured() {
		return fmt.Errorf("%w: mail API key is not set", domain.ErrConfiguration)
	}
	mailLimiter := ratelimit.New(settings.Mail.RequestsPerSecond, 1)
	client, err := aiinbx.New(aiinbx.Config{
		APIKey:    settings.Mail.APIKey,
		BaseURL:   settings.Mail.BaseURL,
		Transport: mailLimiter.Transport(nil),
	})
	if err != nil {
		return err
	}
	a.services.Reply = build(client, ledger)
	return nil
}

func openTenantStore(a *app, configDir, path string) (driven.TenantStore, error) {
	if path == ":memory:" {
		return memorystore.NewTenantStore(), nil
	}
	if path == "" {
		path = filepath.Join(configDir, tenantDBName)
	}
	store, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening tenant database: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store.TenantStore(), nil
}

// openLedger prefers Redis and falls back to an in-process ledger, which
// only deduplicates retries reaching this process.
func openLedger(ctx context.Context, storage domain.StorageSettings) driven.ReplyLedger {
	if storage.RedisAddr == "" {
		return memoryledger.New()
	}
	ledger, err := redisledger.New(ctx, redisledger.Config{
		Addr:     storage.RedisAddr,
		Password: storage.RedisPassword,
		DB:       storage.RedisDB,
	})
	if err != nil {
		logger.Warn("wire: %v, using in-memory reply ledger", err)
		return memoryledger.New()
	}
	return ledger
}
