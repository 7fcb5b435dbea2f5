package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/database"
)

// NewInitDBCmd creates the initdb command.
func NewInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the article, sentence and ner tables",
		Long: `Initdb drops the article, sentence and ner tables if they exist and
creates them empty. Every stored article, paragraph and entity is lost.

The database file and its directory are created when missing.

Examples:
  newscrawl initdb
  newscrawl initdb --db ./global_news.db`,
		Args: cobra.NoArgs,
		RunE: runInitDBCmd,
	}
}

// runInitDBCmd executes the initdb command.
func runInitDBCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("configuration error: %w", config.ErrNoDatabasePath)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if err := database.Reset(ctx, cfg.DBPath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Debug("schema recreated", "path", cfg.DBPath)

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized database: %s\n", cfg.DBPath)
	return nil
}
