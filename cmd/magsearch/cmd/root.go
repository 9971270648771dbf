// Package cmd provides the CLI commands for magsearch.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexline/magsearch/internal/config"
	"github.com/hexline/magsearch/internal/logging"
	"github.com/hexline/magsearch/pkg/version"
)

var (
	cfgFile   string
	debugMode bool
)

// NewRootCmd creates the root command for the magsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magsearch",
		Short: "Hybrid lexical + vector search over a magazine catalog",
		Long: `Magsearch serves hybrid search over a magazine catalog: queries are
filtered by case-insensitive substring match on title, author, and content,
then ranked by embedding similarity.

Ingest the catalog CSVs with 'magsearch ingest', then start the HTTP
service with 'magsearch serve' or query directly with 'magsearch search'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("magsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// initRuntime loads configuration and installs the default logger.
// The returned cleanup closes the log file, if any.
func initRuntime() (*config.Config, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, cleanup, nil
}
