package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/ingest"
	"github.com/hexline/magsearch/internal/store"
)

// newIngestCmd creates the ingest command.
func newIngestCmd() *cobra.Command {
	var infoPath, contentPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the catalog CSVs into the store",
		Long: `Reads the magazine metadata and content CSVs, embeds the content, and
upserts everything in a single transaction. Re-running with the same ids
overwrites the existing rows.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cleanup, err := initRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			if infoPath == "" {
				infoPath = cfg.Ingest.InfoPath
			}
			if contentPath == "" {
				contentPath = cfg.Ingest.ContentPath
			}

			st, err := store.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			embedder := embed.NewHashEmbedder()
			defer func() { _ = embedder.Close() }()

			pipeline := ingest.New(st, embedder, cfg.IngestLockPath(), slog.Default())
			stats, err := pipeline.Run(cmd.Context(), infoPath, contentPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d magazines and %d content records.\n",
				stats.Magazines, stats.Contents)
			return nil
		},
	}

	cmd.Flags().StringVar(&infoPath, "info", "", "Magazine metadata CSV (default from config)")
	cmd.Flags().StringVar(&contentPath, "content", "", "Magazine content CSV (default from config)")
	return cmd
}
