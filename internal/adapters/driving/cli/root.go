// Package cli is the helpdesk command line.
//
// Commands read their dependencies from package variables installed with
// SetServices by the composition root, so tests can swap in mocks.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose    bool
	jsonOutput bool
)

// Services are the ports the commands drive. Any field may be nil when the
// backing provider is not configured; commands report that when invoked.
type Services struct {
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	Reply     driving.ReplyService
	Tenants   driving.TenantService
	Settings  driving.SettingsService
	Verifier  driven.WebhookVerifier

	// ReplyWith builds a reply service delivering through mail instead of
	// the configured provider. Used for dry runs.
	ReplyWith func(mail driven.MailProvider) driving.ReplyService

	// ValidateProviders pings the configured model and embedder.
	ValidateProviders func(cmd *cobra.Command) error

	// Unavailable explains why the index-backed services are nil.
	Unavailable error
}

var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	replyService     driving.ReplyService
	tenantService    driving.TenantService
	settingsService  driving.SettingsService
	webhookVerifier  driven.WebhookVerifier
	replyWith        func(driven.MailProvider) driving.ReplyService
	validateProvider func(*cobra.Command) error
	unavailable      error
)

// SetServices installs the ports used by every command.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	replyService = s.Reply
	tenantService = s.Tenants
	settingsService = s.Settings
	webhookVerifier = s.Verifier
	replyWith = s.ReplyWith
	validateProvider = s.ValidateProviders
	unavailable = s.Unavailable
}

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Retrieval-grounded email helpdesk",
	Long: `helpdesk answers support email from each tenant's own documents.

Upload documents into a tenant's knowledge base, then point the mail
provider's inbound webhook at 'helpdesk serve'. Every reply is grounded
in a search of the tenant's namespace.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// notConfigured builds the error returned when a command's service is nil.
func notConfigured(name string) error {
	msg := name + " service not configured"
	if unavailable != nil {
		return errors.New(msg + ": " + unavailable.Error() + " (see 'helpdesk settings validate')")
	}
	return errors.New(msg)
}
