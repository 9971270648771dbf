package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/server"
	"github.com/hexline/magsearch/internal/store"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the search HTTP service",
		Long:  "Starts the HTTP service exposing GET /search over the ingested catalog.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	embedder := embed.NewCachedEmbedder(embed.NewHashEmbedder(), cfg.Embeddings.CacheSize)
	defer func() { _ = embedder.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, cfg.Search, st, embedder, slog.Default())
	return srv.Run(ctx)
}
