// Package cli implements the ragify command line with cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	configDir string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "ragify",
	Short: "Ask questions about your documents, videos and web pages",
	Long: `ragify ingests documents (pdf, docx, pptx, txt, xlsx), video transcripts
and web pages into a session, then answers questions from what it indexed.

Each session keeps its own index, processed-source registry and
conversation. Sources already ingested in the session are skipped.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragify)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errNotConfigured is returned when a command runs without a backend.
var errNotConfigured = errors.New("ragify is not configured")
