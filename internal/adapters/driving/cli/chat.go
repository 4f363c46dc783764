package cli

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ragify/ragify/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads questions line by line and answers each from the ingested sources.

Type /clear to forget the conversation, or exit, quit or q to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	interactive := isTerminal(cmd)
	if interactive {
		cmd.Println(titleStyle.Render("ragify chat") + mutedStyle.Render("  (exit to leave, /clear to forget)"))
		if state, err := rt.Chat.State(ctx, sess); err == nil && state == domain.SessionIdle {
			cmd.Println(warningStyle.Render("No documents indexed yet: run 'ragify ingest' first."))
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			cmd.Print(userStyle.Render("> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		case "/clear":
			if err := rt.Chat.ClearHistory(ctx, sess); err != nil {
				return err
			}
			cmd.Println(mutedStyle.Render("Conversation cleared."))
			continue
		}

		answer, err := rt.Chat.Answer(ctx, sess, line)
		switch {
		case err == nil:
			cmd.Printf("%s %s\n\n", assistantStyle.Render("Assistant:"), answer.Text)
		case errors.Is(err, domain.ErrNotReady):
			cmd.Println(warningStyle.Render("No documents indexed yet: run 'ragify ingest' first."))
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			cmd.Println(errorStyle.Render("Error: " + err.Error()))
		}
	}
	return scanner.Err()
}

// isTerminal reports whether the command reads from an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
