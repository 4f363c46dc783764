package cli

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a fresh session",
	Long: `Starts a new session with an empty index, no processed sources and no
conversation. The previous session's data stays on disk.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if be == nil {
		return errNotConfigured
	}
	rt, err := be.Runtime(commandContext(cmd))
	if err != nil {
		return err
	}

	sess, err := rt.Reset(commandContext(cmd))
	if err != nil {
		return err
	}
	cmd.Printf("Started session %s\n", sess.Info.ID)
	return nil
}
