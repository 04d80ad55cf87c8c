package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/careers"
)

var (
	careersFresh       bool
	careersConcurrency int
)

var careersCmd = &cobra.Command{
	Use:   "careers",
	Short: "Find careers pages and extract open roles for every company with a website",
	Long: "Crawls each company homepage for careers links, extracts roles with Claude and records " +
		"every outcome in the ledger. Interrupted runs resume where they stopped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("concurrency") {
			cfg.Crawl.Concurrency = careersConcurrency
		}
		if err := cfg.Validate("careers"); err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		start := time.Now()

		records, _, err := loadMaster(ctx)
		if err != nil {
			return err
		}
		st, err := openLedger(ctx, careers.Stage, careersFresh)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		completer := newCompleter()
		finder := careers.NewFinder(newScraper(), completer, careers.Config{
			MaxPageChars: cfg.Crawl.MaxPageChars,
			MaxLinks:     cfg.Crawl.MaxCareersLinks,
			MaxTokens:    cfg.Anthropic.MaxTokens,
			Concurrency:  cfg.Crawl.Concurrency,
		})
		stats, runErr := finder.Run(ctx, st, records)
		completer.LogCost(careers.Stage)

		// Export whatever is recorded, even after an interrupt.
		results, err := careers.Load(context.WithoutCancel(ctx), st)
		if err != nil {
			return err
		}
		if err := careers.Write(outputPath(careers.File), results); err != nil {
			return err
		}

		s := careers.Summarize(results)
		zap.L().Info("careers export written",
			zap.Int("companies", s.Total),
			zap.Int("careers_pages", s.HasCareersPage),
			zap.Int("roles", s.Roles),
			zap.Int("homepage_errors", s.HomepageErrors),
		)
		fmt.Fprintf(cmd.OutOrStdout(),
			"careers: %d processed, %d skipped, %d failed in %s; %d companies with careers pages, %d roles -> %s\n",
			stats.Processed, stats.Skipped, stats.Failed, elapsedSince(start),
			s.HasCareersPage, s.Roles, outputPath(careers.File))
		return runErr
	},
}

func init() {
	careersCmd.Flags().BoolVar(&careersFresh, "fresh", false, "discard recorded careers results and start over")
	careersCmd.Flags().IntVar(&careersConcurrency, "concurrency", 0, "parallel company crawls (default from config)")
	rootCmd.AddCommand(careersCmd)
}
