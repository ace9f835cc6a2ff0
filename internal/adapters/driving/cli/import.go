package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [export.json]",
	Short: "Import a Roam JSON export into the database",
	Long: `Loads a Roam Research JSON export file. The whole import is one
transaction: either every page and item is written, or none are.
Embeddings left behind by removed items are swept afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := wireImport(); err != nil {
		return err
	}

	report, err := importService.ImportFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d pages (%d items)\n", report.Pages, report.Items)
	if report.OrphansRemoved > 0 {
		cmd.Printf("Removed %d orphaned embeddings\n", report.OrphansRemoved)
	}
	return nil
}
