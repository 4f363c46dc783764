package cli

import (
	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves ingestion, questions and session management over HTTP under /api/v1.

Endpoints:
  GET    /api/v1/health
  GET    /api/v1/status
  POST   /api/v1/sources   multipart "files", "video_url", "web_url"
  POST   /api/v1/ask       {"question": "..."}
  POST   /api/v1/retrieve  {"query": "...", "k": 5}
  GET    /api/v1/history
  DELETE /api/v1/history
  POST   /api/v1/reset`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "127.0.0.1:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if be == nil {
		return errNotConfigured
	}
	ctx := commandContext(cmd)
	rt, err := be.Runtime(ctx)
	if err != nil {
		return err
	}

	server := api.NewServer(rt, api.Config{Version: version})
	cmd.Printf("ragify API listening on http://%s/api/v1\n", serveAddr)
	return server.Listen(ctx, serveAddr)
}
