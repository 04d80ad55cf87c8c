package main

import (
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/careers"
	"github.com/sells-group/jobboard-cli/internal/enrich"
	"github.com/sells-group/jobboard-cli/internal/geo"
	"github.com/sells-group/jobboard-cli/internal/site"
)

var (
	buildDir          string
	buildGeocodesFile string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static job board from the master corpus and stage results",
	Long: "Joins the master corpus with recorded careers, enrichment and geocode results and " +
		"writes site_data.json, companies.geojson and index.html. Missing stages leave their fields empty.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildDir != "" {
			cfg.Site.Dir = buildDir
		}
		if err := cfg.Validate("build"); err != nil {
			return err
		}
		ctx := cmd.Context()
		start := time.Now()

		records, _, err := loadMaster(ctx)
		if err != nil {
			return err
		}
		st, err := openLedger(ctx, "", false)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		crawled, err := careers.Load(ctx, st)
		if err != nil {
			return err
		}
		enrichments, err := enrich.Load(ctx, st)
		if err != nil {
			return err
		}
		geocodes, err := geo.Load(ctx, st)
		if err != nil {
			return err
		}
		if buildGeocodesFile != "" {
			extra, err := geo.ReadJSON(buildGeocodesFile)
			if err != nil {
				return err
			}
			// Ledger results win over the file.
			maps.Copy(extra, geocodes)
			geocodes = extra
		}

		settings, err := site.LoadSettings(cfg.Site.SettingsFile)
		if err != nil {
			return err
		}
		data := site.Build(site.Input{
			Records:     records,
			Careers:     careers.ByCompany(crawled),
			Enrichments: enrichments,
			Geocodes:    geocodes,
		}, settings, time.Now())

		if err := site.Write(cfg.Site.Dir, data); err != nil {
			return err
		}
		zap.L().Info("site stats",
			zap.Int("companies", data.Stats.Total),
			zap.Int("hiring", data.Stats.Hiring),
			zap.Int("roles", data.Stats.Roles),
			zap.Int("sectors", data.Stats.Sectors),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "build: %d companies, %d roles in %s -> %s\n",
			len(data.Companies), len(data.Roles), elapsedSince(start), cfg.Site.Dir)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildDir, "dir", "", "site output directory (default from config)")
	buildCmd.Flags().StringVar(&buildGeocodesFile, "geocodes-file", "", "extra postcode geocodes JSON merged under the ledger results")
	rootCmd.AddCommand(buildCmd)
}
