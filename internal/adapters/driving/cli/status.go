package cli

import (
	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	status, err := rt.Sessions.Status(ctx, sess)
	if err != nil {
		return err
	}

	limits := domain.DefaultSettings().Ingest
	if svc, err := settingsService(); err == nil {
		if settings, err := svc.Get(); err == nil {
			limits = settings.Ingest
		}
	}

	cmd.Println(titleStyle.Render("Session " + status.Session.ID))
	cmd.Printf("  State:    %s\n", status.State)
	cmd.Printf("  Segments: %d\n", status.Records)
	cmd.Printf("  Turns:    %d\n", status.Turns)
	cmd.Printf("  Files:    %d\n", status.CountKind(domain.SourceKindFile))
	cmd.Printf("  Videos:   %d/%d\n", status.CountKind(domain.SourceKindVideo), limits.MaxVideoURLs)
	cmd.Printf("  Web:      %d/%d\n", status.CountKind(domain.SourceKindWeb), limits.MaxWebURLs)

	if len(status.Processed) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, p := range status.Processed {
		cmd.Printf("  %s %s (%d segments)\n", mutedStyle.Render(p.Kind.String()), p.ID, p.SegmentCount)
	}
	return nil
}
