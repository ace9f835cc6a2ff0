package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

var embedReset bool

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for items that lack one",
	Long: `Computes an embedding for every item that has contents but no stored
vector. Interrupted or failed runs are safe to repeat: each run picks up
the items still missing a vector.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedReset, "reset", false, "delete all embeddings and re-generate")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if err := wireEmbed(); err != nil {
		return err
	}

	report, err := embedService.UpdateEmbeddings(cmd.Context(), driving.EmbedOptions{Reset: embedReset})
	if err != nil {
		return fmt.Errorf("embedding update failed: %w", err)
	}

	cmd.Printf("Updated %d embeddings\n", report.Updated)
	if report.FailedBatches > 0 {
		cmd.Printf("%d batches failed; run again to retry their items\n", report.FailedBatches)
	}
	return nil
}
