package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/careers"
	"github.com/sells-group/jobboard-cli/internal/enrich"
)

var (
	enrichFresh       bool
	enrichConcurrency int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate descriptions, sector tags and stage estimates for every company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("concurrency") {
			cfg.Enrich.Concurrency = enrichConcurrency
		}
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		start := time.Now()

		records, layout, err := loadMaster(ctx)
		if err != nil {
			return err
		}
		st, err := openLedger(ctx, enrich.Stage, enrichFresh)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Careers summaries give the model hiring context when available.
		crawled, err := careers.Load(ctx, st)
		if err != nil {
			return err
		}
		summaries := make(map[string]string, len(crawled))
		for name, r := range careers.ByCompany(crawled) {
			if r.Summary != "" {
				summaries[name] = r.Summary
			}
		}

		completer := newCompleter()
		enricher := enrich.NewEnricher(newScraper(), completer, enrich.Config{
			MaxPageChars: cfg.Enrich.MaxPageChars,
			MaxTokens:    cfg.Anthropic.MaxTokens,
			Concurrency:  cfg.Enrich.Concurrency,
		}, summaries)
		stats, runErr := enricher.Run(ctx, st, records)
		completer.LogCost(enrich.Stage)

		enrichments, err := enrich.Load(context.WithoutCancel(ctx), st)
		if err != nil {
			return err
		}
		if err := enrich.Write(outputPath(enrich.File), layout, enrich.Join(records, enrichments)); err != nil {
			return err
		}

		s := enrich.Summarize(enrichments, 10)
		for _, c := range s.TopSectorTags {
			zap.L().Info("sector tag", zap.String("tag", c.Label), zap.Int("companies", c.Count))
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"enrich: %d processed, %d skipped, %d failed in %s; %d enriched, %d with errors -> %s\n",
			stats.Processed, stats.Skipped, stats.Failed, elapsedSince(start),
			s.Total, s.Errors, outputPath(enrich.File))
		return runErr
	},
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichFresh, "fresh", false, "discard recorded enrichments and start over")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "parallel enrichments (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
