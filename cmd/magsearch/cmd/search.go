package cmd

import (
	"encoding/json"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/store"
	"github.com/hexline/magsearch/internal/ui"
)

// newSearchCmd creates the search command, which queries the store directly
// without going through the HTTP service.
func newSearchCmd() *cobra.Command {
	var jsonOutput bool
	var plain bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search against the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := initRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := store.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			embedder := embed.NewHashEmbedder()
			defer func() { _ = embedder.Close() }()

			q := args[0]
			queryVec, err := embedder.Embed(cmd.Context(), q)
			if err != nil {
				return err
			}

			results, err := st.SearchHybrid(cmd.Context(), q, queryVec, cfg.Search.MaxResults)
			if err != nil {
				return err
			}

			if jsonOutput {
				for i := range results {
					results[i].Similarity = catalog.RoundSimilarity(results[i].Similarity)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			styled := !plain && isatty.IsTerminal(os.Stdout.Fd())
			ui.RenderResults(cmd.OutOrStdout(), results, styled)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable styled output")
	return cmd
}
