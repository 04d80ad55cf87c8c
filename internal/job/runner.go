// Package job runs resumable pipeline stages over an append-only ledger.
package job

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jobboard-cli/internal/store"
)

// Stats counts what a run did.
type Stats struct {
	Total     int `json:"total"`
	Skipped   int `json:"skipped"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Runner processes items whose key is not yet in the stage ledger and
// appends each outcome as soon as it completes. Re-running resumes where
// the last run stopped.
type Runner[T, R any] struct {
	Ledger      store.Ledger
	Stage       string
	Concurrency int
	Key         func(T) string
	Process     func(ctx context.Context, item T) (R, error)
	// OnResult, when set, is called after each outcome is recorded.
	OnResult func(item T, result R)
}

// Run processes items. An item-level error is logged and the item is left
// unrecorded so the next run retries it. Ledger failures and cancellation
// abort the run.
func (r *Runner[T, R]) Run(ctx context.Context, items []T) (Stats, error) {
	log := zap.L().With(zap.String("stage", r.Stage))

	done, err := r.Ledger.ProcessedKeys(ctx, r.Stage)
	if err != nil {
		return Stats{}, eris.Wrapf(err, "job: load processed keys for %s", r.Stage)
	}

	stats := Stats{Total: len(items)}
	seen := make(map[string]bool, len(items))
	var todo []T
	for _, it := range items {
		k := r.Key(it)
		if done[k] || seen[k] {
			stats.Skipped++
			continue
		}
		seen[k] = true
		todo = append(todo, it)
	}
	log.Info("stage starting",
		zap.Int("total", stats.Total),
		zap.Int("already_processed", stats.Skipped),
		zap.Int("remaining", len(todo)),
	)

	workers := r.Concurrency
	if workers < 1 {
		workers = 1
	}

	var (
		processed, failed atomic.Int64
		mu                sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, it := range todo {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			k := r.Key(it)
			res, err := r.Process(gctx, it)
			if err != nil {
				if gctx.Err() != nil {
					return eris.Wrapf(gctx.Err(), "job: %s cancelled", r.Stage)
				}
				failed.Add(1)
				log.Warn("item failed, will retry next run", zap.String("key", k), zap.Error(err))
				return nil
			}

			payload, err := json.Marshal(res)
			if err != nil {
				return eris.Wrapf(err, "job: marshal %s result for %q", r.Stage, k)
			}
			if err := r.Ledger.Append(gctx, r.Stage, k, payload); err != nil {
				return err
			}

			n := processed.Add(1)
			if r.OnResult != nil {
				mu.Lock()
				r.OnResult(it, res)
				mu.Unlock()
			}
			if n%10 == 0 {
				log.Info("stage progress", zap.Int64("processed", n), zap.Int("remaining", len(todo)-int(n)))
			}
			return nil
		})
	}

	err = g.Wait()
	stats.Processed = int(processed.Load())
	stats.Failed = int(failed.Load())
	if err == nil && ctx.Err() != nil {
		err = eris.Wrapf(ctx.Err(), "job: %s cancelled", r.Stage)
	}
	if err != nil {
		return stats, err
	}

	log.Info("stage complete",
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// Results decodes the latest ledger entry for every key in the stage.
func Results[R any](ctx context.Context, ledger store.Ledger, stage string) (map[string]R, error) {
	entries, err := ledger.Entries(ctx, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "job: load %s entries", stage)
	}
	out := make(map[string]R, len(entries))
	for _, e := range store.Latest(entries) {
		var v R
		if err := e.Decode(&v); err != nil {
			return nil, err
		}
		out[e.Key] = v
	}
	return out, nil
}

// Keyed pairs a ledger key with its decoded outcome.
type Keyed[R any] struct {
	Key   string
	Value R
}

// Ordered decodes the latest entry per key in first-append order.
func Ordered[R any](ctx context.Context, ledger store.Ledger, stage string) ([]Keyed[R], error) {
	entries, err := ledger.Entries(ctx, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "job: load %s entries", stage)
	}
	latest := store.Latest(entries)
	out := make([]Keyed[R], 0, len(latest))
	for _, e := range latest {
		var v R
		if err := e.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, Keyed[R]{Key: e.Key, Value: v})
	}
	return out, nil
}
