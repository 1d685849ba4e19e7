package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server exposing the knowledge-base
tools (search_knowledge_base, get_detailed_info) and the tenant list.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode (for desktop assistants)
  helpdesk mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  helpdesk mcp serve --port 8081`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Tenants:   tenantService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
