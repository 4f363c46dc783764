package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/connectors/filesystem"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents as they appear in a directory",
	Long: `Ingests the supported documents already in the directory, then keeps
watching it and ingests new files as they are written. Hidden files and
directories are ignored. Files are identified by name, so a file already
processed in the session is not ingested again when it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "delay before ingesting a burst of changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	if _, _, err := activeSession(ctx); err != nil {
		return err
	}

	limits := domain.DefaultSettings().Ingest
	if svc, err := settingsService(); err == nil {
		if settings, err := svc.Get(); err == nil {
			limits = settings.Ingest
		}
	}

	w := filesystem.New(args[0],
		filesystem.WithDebounce(watchDebounce),
		filesystem.WithFilter(func(path string) bool {
			return limits.Allows(domain.FileTypeFromName(path))
		}),
	)

	existing, err := w.Scan()
	if err != nil {
		return err
	}
	ingestPaths(cmd, existing)

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Root())

	for paths := range changes {
		ingestPaths(cmd, paths)
	}
	return nil
}

// ingestPaths ingests the files at paths. Failures are logged so the
// watch goes on.
func ingestPaths(cmd *cobra.Command, paths []string) {
	if len(paths) == 0 {
		return
	}
	batch, readFailures := readBatch(paths)
	for _, f := range readFailures {
		cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), f.SourceID, f.Err)
	}
	if batch.IsEmpty() {
		return
	}

	if err := ingestBatch(cmd, batch); err != nil && commandContext(cmd).Err() == nil {
		logger.Error("%v", err)
	}
}
