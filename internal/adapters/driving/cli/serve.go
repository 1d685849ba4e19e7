package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/mcp"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

var (
	serveAddr  string
	serveNoMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and inbound mail webhook",
	Long: `Serves the dashboard and mail provider endpoints:

  GET  /healthz
  GET  /api/orgs/check-slug?slug=<slug>
  POST /api/orgs/<slug>/documents/ingest   (multipart "files")
  POST /api/webhooks/inbound               (signed AI Inbx events)
  ANY  /mcp                                (MCP streamable HTTP, unless --no-mcp)

The listen address defaults to server.addr from the settings.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	ports := httpapi.Ports{
		Ingest:   ingestService,
		Reply:    replyService,
		Tenants:  tenantService,
		Verifier: webhookVerifier,
	}
	if ingestService == nil {
		logger.Warn("serve: ingest service unavailable, uploads will return 503")
	}
	if replyService == nil {
		logger.Warn("serve: reply service unavailable, webhooks will return 503")
	}
	if webhookVerifier == nil {
		logger.Warn("serve: no webhook secret configured, every webhook will be rejected")
	}
	if !serveNoMCP && retrievalService != nil {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Retrieval: retrievalService, Tenants: tenantService})
		if err != nil {
			return err
		}
		ports.MCP = mcpServer.Handler()
	}

	server, err := httpapi.NewServer(ports, httpapi.Config{
		AllowedOrigins: settings.Server.AllowedOrigins,
		MaxUploadBytes: settings.Server.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("helpdesk listening on %s\n", addr)
	return server.Run(ctx, addr)
}
