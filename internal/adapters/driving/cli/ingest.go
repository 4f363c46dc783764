package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/core/domain"
)

var (
	ingestVideoURLs []string
	ingestWebURLs   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest files, video transcripts and web pages",
	Long: `Extracts, segments and indexes sources into the active session.

Files may be pdf, docx, pptx, txt or xlsx. Video URLs are ingested from
their transcripts. Sources already processed in the session are skipped,
and a failing source does not stop the others.

Examples:
  ragify ingest report.pdf notes.txt
  ragify ingest --video https://www.youtube.com/watch?v=abc123
  ragify ingest --web https://example.com/article --web https://example.org`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringArrayVar(&ingestVideoURLs, "video", nil, "video URL to ingest (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestWebURLs, "web", nil, "web page URL to ingest (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	batch, readFailures := readBatch(args)
	batch.VideoURLs = ingestVideoURLs
	batch.WebURLs = ingestWebURLs

	for _, f := range readFailures {
		cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), f.SourceID, f.Err)
	}
	if batch.IsEmpty() {
		if len(readFailures) > 0 {
			return errors.New("no readable sources")
		}
		return errors.New("nothing to ingest: give files, --video or --web")
	}

	return ingestBatch(cmd, batch)
}

// readBatch reads local files into a batch. Unreadable files are
// returned as failures.
func readBatch(paths []string) (domain.Batch, []domain.SourceError) {
	var batch domain.Batch
	var failures []domain.SourceError
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, domain.SourceError{
				SourceID: filepath.Base(path),
				Kind:     domain.SourceKindFile,
				Err:      err,
			})
			continue
		}
		batch.Files = append(batch.Files, domain.FileInput{Name: path, Data: data})
	}
	return batch, failures
}

// ingestBatch runs a batch against the active session and prints the report.
func ingestBatch(cmd *cobra.Command, batch domain.Batch) error {
	ctx := commandContext(cmd)
	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	pending, err := rt.Ingest.HasPending(ctx, sess, batch)
	if err != nil {
		return err
	}
	if !pending {
		cmd.Println(mutedStyle.Render("All sources are already processed in this session."))
		return nil
	}

	report, err := rt.Ingest.Ingest(ctx, sess, batch)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("ingestion cancelled")
		}
		return fmt.Errorf("ingestion stopped: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	for _, p := range report.Ingested {
		cmd.Printf("%s %s (%s, %d segments)\n", successStyle.Render("✓"), p.ID, p.Kind, p.SegmentCount)
	}
	for _, id := range report.Empty {
		cmd.Printf("%s %s: no text found\n", warningStyle.Render("!"), id)
	}
	for _, id := range report.Skipped {
		cmd.Printf("%s %s: already processed\n", mutedStyle.Render("-"), id)
	}
	for _, f := range report.Failures {
		cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), f.SourceID, f.Err)
	}
	cmd.Printf("\nIndexed %d segments.\n", report.Records)
}
