package cli

import (
	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation of the active session",
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the conversation",
	Long:  `Clears the conversation of the active session. Ingested sources stay indexed.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	turns, err := rt.Chat.History(ctx, sess)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		cmd.Println("No conversation yet.")
		return nil
	}

	for _, t := range turns {
		printTurn(cmd, t)
	}
	return nil
}

func printTurn(cmd *cobra.Command, t domain.Turn) {
	label := userStyle.Render("You")
	if t.Role == domain.RoleAssistant {
		label = assistantStyle.Render("Assistant")
	}
	cmd.Printf("%s: %s\n\n", label, t.Content)
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	if err := rt.Chat.ClearHistory(ctx, sess); err != nil {
		return err
	}
	cmd.Println("Conversation cleared.")
	return nil
}
