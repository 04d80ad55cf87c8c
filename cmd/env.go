package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/llm"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/scrape"
	"github.com/sells-group/jobboard-cli/internal/store"
	"github.com/sells-group/jobboard-cli/pkg/anthropic"
)

// signalContext cancels on SIGINT or SIGTERM so resumable stages stop
// cleanly and the next run picks up where this one left off.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func outputPath(name string) string {
	return filepath.Join(cfg.Corpus.OutputDir, name)
}

func registryColumns() corpus.RegistryColumns {
	return corpus.RegistryColumns{
		RegistrationID:     cfg.Corpus.RegistryColumns.RegistrationID,
		Status:             cfg.Corpus.RegistryColumns.Status,
		ClassificationCode: cfg.Corpus.RegistryColumns.ClassificationCode,
		Address:            cfg.Corpus.AddressColumns,
	}
}

// loadMaster reads the master corpus written by merge.
func loadMaster(ctx context.Context) ([]model.MasterRecord, corpus.Layout, error) {
	return corpus.ReadMaster(ctx, outputPath(corpus.MasterFile))
}

// openLedger opens the stage ledger, discarding the stage's history first
// when fresh is set.
func openLedger(ctx context.Context, stage string, fresh bool) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if fresh {
		n, err := st.Reset(ctx, stage)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		zap.L().Info("ledger reset", zap.String("stage", stage), zap.Int("entries", n))
	}
	return st, nil
}

func newScraper() *scrape.LocalScraper {
	opts := scrape.DefaultOptions()
	opts.UserAgent = cfg.Crawl.UserAgent
	opts.Timeout = time.Duration(cfg.Crawl.TimeoutSecs) * time.Second
	opts.RequestsPerSec = cfg.Crawl.RequestsPerSec
	return scrape.NewLocalScraper(opts)
}

func newCompleter() *llm.JSONCompleter {
	return llm.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
}

func elapsedSince(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
