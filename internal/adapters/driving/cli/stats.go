package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show note store counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := wireStore(); err != nil {
		return err
	}

	stats, err := noteStore.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Pages:      %d\n", stats.Pages)
	cmd.Printf("Items:      %d\n", stats.Items)
	cmd.Printf("Embeddings: %d\n", stats.Embeddings)
	return nil
}
