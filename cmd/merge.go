package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/metrics"
	"github.com/sells-group/jobboard-cli/internal/resolve"
)

const logTopMatches = 10

var (
	mergeHubPath      string
	mergeRegistryPath string
	mergeThreshold    float64
	mergeWorkers      int
	mergeMetricsFile  string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Link hub companies to the register and write the master corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyMergeFlags(cmd)
		if err := cfg.Validate("merge"); err != nil {
			return err
		}
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "merge"))

		cols := registryColumns()
		hub, err := corpus.LoadHub(ctx, cfg.Corpus.HubPath, cols.Address...)
		if err != nil {
			return err
		}
		reg, err := corpus.LoadRegistry(ctx, cfg.Corpus.RegistryPath, cols)
		if err != nil {
			return err
		}
		log.Info("corpora loaded", zap.Int("hub", len(hub.Records)), zap.Int("registry", len(reg.Records)))

		promReg := prometheus.NewRegistry()
		matcher := &resolve.Matcher{
			Threshold:    cfg.Match.Threshold,
			NearMissBand: cfg.Match.NearMissBand,
			Workers:      cfg.Match.Workers,
			Observer:     metrics.NewMerge(promReg),
		}
		res, err := matcher.Run(ctx, hub.Records, reg.Records)
		if err != nil {
			return err
		}

		layout := corpus.Layout{MetadataColumns: hub.MetadataColumns, AddressColumns: reg.AddressColumns}
		master := res.Assemble()
		if err := corpus.WriteMaster(outputPath(corpus.MasterFile), layout, master); err != nil {
			return err
		}
		if err := corpus.WriteMatchReport(outputPath(corpus.MatchReportFile), res.Report()); err != nil {
			return err
		}
		nearMisses := res.NearMisses()
		if err := corpus.WriteNearMisses(outputPath(corpus.NearMissFile), nearMisses); err != nil {
			return err
		}
		if err := corpus.WriteAmbiguities(outputPath(corpus.AmbiguityFile), res.Ambiguities); err != nil {
			return err
		}

		accepted := res.Accepted()
		for _, row := range accepted[:min(logTopMatches, len(accepted))] {
			log.Info("confirmed match",
				zap.String("hub", row.SourceName),
				zap.String("registry", row.CandidateName),
				zap.Float64("score", row.Score),
			)
		}
		for _, row := range nearMisses {
			log.Info("near miss",
				zap.String("hub", row.SourceName),
				zap.String("registry", row.CandidateName),
				zap.Float64("score", row.Score),
			)
		}
		for _, cc := range res.TopClassificationCodes(5) {
			log.Info("top classification code", zap.String("code", cc.Code), zap.Int("count", cc.Count))
		}

		if mergeMetricsFile != "" {
			if err := metrics.WriteTextfile(mergeMetricsFile, promReg); err != nil {
				return err
			}
		}

		s := res.Summary()
		fmt.Fprintf(cmd.OutOrStdout(),
			"merged %d hub + %d registry records into %d master records (%d accepted, %d near misses, %d ambiguous targets) -> %s\n",
			s.Sources, s.Targets, len(master), s.Accepted, s.NearMisses, s.AmbiguousTargets,
			outputPath(corpus.MasterFile))
		return nil
	},
}

func applyMergeFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("hub") {
		cfg.Corpus.HubPath = mergeHubPath
	}
	if cmd.Flags().Changed("registry") {
		cfg.Corpus.RegistryPath = mergeRegistryPath
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Match.Threshold = mergeThreshold
	}
	if cmd.Flags().Changed("workers") {
		cfg.Match.Workers = mergeWorkers
	}
}

func init() {
	mergeCmd.Flags().StringVar(&mergeHubPath, "hub", "", "hub company list (default from config)")
	mergeCmd.Flags().StringVar(&mergeRegistryPath, "registry", "", "company register extract (default from config)")
	mergeCmd.Flags().Float64Var(&mergeThreshold, "threshold", resolve.DefaultThreshold, "acceptance threshold")
	mergeCmd.Flags().IntVar(&mergeWorkers, "workers", 1, "parallel match workers")
	mergeCmd.Flags().StringVar(&mergeMetricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	rootCmd.AddCommand(mergeCmd)
}
