package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/model"
	"github.com/nao1215/newscrawl/internal/report"
)

// NewEntitiesCmd creates the entities command.
func NewEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities <article-id>",
		Short: "Show named entities recorded for an article",
		Long: `Entities prints every named entity recorded in the ner table for the
sentences of one article, together with the article title and the
sentence text.

Entities are written by an external recognition step; an article that
has not been processed yet has none.

Examples:
  newscrawl entities 1
  newscrawl entities 1 -v          # include sentence text
  newscrawl entities 1 --markdown`,
		Args: cobra.ExactArgs(1),
		RunE: runEntitiesCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runEntitiesCmd executes the entities command.
func runEntitiesCmd(cmd *cobra.Command, args []string) error {
	articleID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || articleID <= 0 {
		return fmt.Errorf("invalid article id %q: must be a positive integer", args[0])
	}

	cfg, db, err := openExisting(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if _, found, err := db.GetArticle(ctx, articleID); err != nil {
		return fmt.Errorf("failed to look up article: %w", err)
	} else if !found {
		return fmt.Errorf("article %d not found", articleID)
	}

	var rows []model.SentenceEntityRow
	for row, err := range db.ListEntitiesForArticle(ctx, articleID) {
		if err != nil {
			return fmt.Errorf("failed to list entities: %w", err)
		}
		rows = append(rows, row)
	}

	return writeOutput(cmd, cfg, false, func(w report.Writer) error {
		_, err := w.WriteEntities(articleID, rows)
		return err
	})
}
