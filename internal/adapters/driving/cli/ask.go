package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragify/ragify/internal/core/domain"
)

var (
	askShowSources bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested sources",
	Long: `Retrieves the segments most similar to the question and asks the
language model to answer from them. The question and the answer are
appended to the session's conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askShowSources, "sources", "s", false, "show the segments the answer used")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx := commandContext(cmd)

	rt, sess, err := activeSession(ctx)
	if err != nil {
		return err
	}

	answer, err := rt.Chat.Answer(ctx, sess, question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return errors.New("no documents indexed yet: run 'ragify ingest' first")
		}
		return err
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if askShowSources {
		cmd.Println()
		printSegments(cmd, answer.Sources)
	}
	return nil
}

type answerJSON struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []segmentJSON `json:"sources"`
}

type segmentJSON struct {
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

func toSegmentJSON(results []domain.RetrievedSegment) []segmentJSON {
	out := make([]segmentJSON, len(results))
	for i, r := range results {
		out[i] = segmentJSON{Source: r.Segment.SourceID, Content: r.Segment.Content, Similarity: r.Similarity}
	}
	return out
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answerJSON{
		Question: answer.Question,
		Answer:   answer.Text,
		Sources:  toSegmentJSON(answer.Sources),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printSegments(cmd *cobra.Command, results []domain.RetrievedSegment) {
	if len(results) == 0 {
		cmd.Println("No segments found.")
		return
	}
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Segment.SourceID, r.Similarity)
		cmd.Printf("      %s\n", mutedStyle.Render(snippet(r.Segment.Content, 160)))
	}
}

// snippet flattens whitespace and cuts s to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
