package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atheneahq/athenea-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server, exposing the ask and search
operations as tools for AI assistants.

By default the server communicates over stdio using JSON-RPC. Use
--port to serve over HTTP instead, for MCP Inspector or remote access.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "athenea": {
        "command": "/path/to/athenea",
        "args": ["mcp", "serve"]
      }
    }
  }`,
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

	if err := warmIndexes(cmd); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ask:    askService,
		Ingest: ingestService,
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
