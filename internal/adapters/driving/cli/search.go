package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fernwood-labs/recall-cli/internal/core/domain"
	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

var (
	searchTopK      int
	searchOutput    string
	searchEuclidean bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the notes most similar to a query",
	Long: `Embeds the query, finds the most similar items in the database, and
prints them as a Roam-style outline grouped by page, most relevant first.
Ancestor items are included so each hit is readable in context.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 32, "number of results to retain")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "write the outline to this file instead of stdout")
	searchCmd.Flags().BoolVar(&searchEuclidean, "euclidean", false, "rank by euclidean instead of cosine distance")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := wireSearch(); err != nil {
		return err
	}

	opts := driving.SearchOptions{TopK: searchTopK}
	if searchEuclidean {
		opts.Metric = domain.Euclidean
	}

	pages, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out, closeOut, err := openOutput(cmd, searchOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprintf(out, "Query: `%s`\n", args[0])
	for i := range pages {
		fmt.Fprintln(out, pages[i].RoamText(1))
	}
	return nil
}

// openOutput returns the writer for a command's rendered output: the given
// file when set, the command's stdout otherwise.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
