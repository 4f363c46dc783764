package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/adapters/driving/mcp"
	"github.com/ragify/ragify/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest
sources into the active session and ask questions about them.

Tools: ingest, ask, retrieve, status, clear_history, reset.
Resources: ragify://sources, ragify://history.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  ragify mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  ragify mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "ragify": {
        "command": "/path/to/ragify",
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
	if be == nil {
		return errNotConfigured
	}

	rt, err := be.Runtime(commandContext(cmd))
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Sessions: rt.Sessions,
		Ingest:   rt.Ingest,
		Chat:     rt.Chat,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Warn("closing mcp session: %v", err)
		}
	}()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}
