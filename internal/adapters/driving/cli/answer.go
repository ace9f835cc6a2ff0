package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

var (
	answerContextSize int
	answerOutput      string
)

var answerCmd = &cobra.Command{
	Use:   "answer <question>",
	Short: "Answer a question using the notes as context",
	Long: `Runs a wide similarity search for the question, assembles the most
relevant pages into a prompt, and asks the configured chat model to
answer from that context. Citations reference item ids as ((id)).`,
	Args: cobra.ExactArgs(1),
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().IntVarP(&answerContextSize, "context-size", "n", 0, "number of search hits to feed the model (default 512)")
	answerCmd.Flags().StringVarP(&answerOutput, "output", "o", "", "write the answer to a file instead of stdout")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if err := wireAnswer(); err != nil {
		return err
	}

	answer, err := answerService.Answer(cmd.Context(), args[0], driving.AnswerOptions{
		ContextSize: answerContextSize,
	})
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	out, closeOut, err := openOutput(cmd, answerOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprintf(out, "Query: `%s`\n\n", args[0])
	fmt.Fprintln(out, answer)
	return nil
}
