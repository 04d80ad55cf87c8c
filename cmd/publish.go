package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/store"
)

var publishTable string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy the master corpus into a Postgres table",
	Long:  "Replaces the contents of the publish table with the current master corpus in a single transaction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if publishTable != "" {
			cfg.Publish.Table = publishTable
		}
		if err := cfg.Validate("publish"); err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		records, layout, err := loadMaster(ctx)
		if err != nil {
			return err
		}
		pool, err := store.NewPool(ctx, cfg.Publish.DatabaseURL, nil)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := corpus.PublishMaster(ctx, pool, cfg.Publish.Table, layout, records)
		if err != nil {
			return err
		}
		zap.L().Info("master corpus published", zap.String("table", cfg.Publish.Table), zap.Int64("rows", n))
		fmt.Fprintf(cmd.OutOrStdout(), "publish: %d rows -> %s\n", n, cfg.Publish.Table)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishTable, "table", "", "target table (default from config)")
	rootCmd.AddCommand(publishCmd)
}
