package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/jobboard-cli/internal/geo"
	"github.com/sells-group/jobboard-cli/pkg/geocode"
)

var geocodeFresh bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve master corpus postcodes to coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		start := time.Now()

		records, _, err := loadMaster(ctx)
		if err != nil {
			return err
		}
		st, err := openLedger(ctx, geo.Stage, geocodeFresh)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		client := geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithBatchSize(cfg.Geocode.BatchSize),
		)
		postcodes := geo.Postcodes(records)
		stats, runErr := geo.Run(ctx, client, st, postcodes)

		geocodes, err := geo.Load(context.WithoutCancel(ctx), st)
		if err != nil {
			return err
		}
		if err := geo.WriteJSON(outputPath(geo.File), geocodes); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"geocode: %d postcodes, %d newly matched, %d skipped, %d unmatched in %s; %d geocoded -> %s\n",
			stats.Total, stats.Processed, stats.Skipped, stats.Failed, elapsedSince(start),
			len(geocodes), outputPath(geo.File))
		return runErr
	},
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodeFresh, "fresh", false, "discard recorded geocodes and look every postcode up again")
	rootCmd.AddCommand(geocodeCmd)
}
