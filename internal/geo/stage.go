package geo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/job"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/store"
	"github.com/sells-group/jobboard-cli/pkg/geocode"
)

const (
	// Stage is the geocode ledger stage name.
	Stage = "geocode"
	// File is the exported geocode table.
	File = "geocodes.json"
)

// Run geocodes every postcode not yet in the ledger. Only matched postcodes
// are recorded, so unmatched ones and failed batches are retried next run.
func Run(ctx context.Context, client geocode.Client, ledger store.Ledger, postcodes []string) (job.Stats, error) {
	log := zap.L().With(zap.String("stage", Stage))

	done, err := ledger.ProcessedKeys(ctx, Stage)
	if err != nil {
		return job.Stats{}, eris.Wrap(err, "geo: load processed postcodes")
	}

	stats := job.Stats{Total: len(postcodes)}
	var todo []string
	for _, pc := range postcodes {
		if done[pc] {
			stats.Skipped++
			continue
		}
		todo = append(todo, pc)
	}
	log.Info("geocoding postcodes", zap.Int("remaining", len(todo)), zap.Int("already_processed", stats.Skipped))
	if len(todo) == 0 {
		return stats, nil
	}

	results, err := client.Lookup(ctx, todo)
	if err != nil {
		return stats, err
	}
	for _, r := range results {
		if !r.Matched {
			continue
		}
		payload, err := json.Marshal(model.Geocode{Lat: r.Latitude, Lon: r.Longitude})
		if err != nil {
			return stats, eris.Wrapf(err, "geo: marshal %s", r.Postcode)
		}
		if err := ledger.Append(ctx, Stage, NormalizePostcode(r.Postcode), payload); err != nil {
			return stats, err
		}
		stats.Processed++
	}
	stats.Failed = len(todo) - stats.Processed

	log.Info("geocoding complete", zap.Int("matched", stats.Processed), zap.Int("unmatched", stats.Failed))
	return stats, nil
}

// Load returns every recorded geocode keyed by postcode.
func Load(ctx context.Context, ledger store.Ledger) (map[string]model.Geocode, error) {
	return job.Results[model.Geocode](ctx, ledger, Stage)
}

// WriteJSON exports geocodes as {postcode: {lat, lon}}.
func WriteJSON(path string, geocodes map[string]model.Geocode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "geo: create directory for %s", path)
	}
	data, err := json.MarshalIndent(geocodes, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geo: marshal geocodes")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "geo: write %s", path)
}

// ReadJSON loads a table written by WriteJSON. Keys are normalized.
func ReadJSON(path string) (map[string]model.Geocode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}
	var raw map[string]model.Geocode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "geo: parse %s", path)
	}
	out := make(map[string]model.Geocode, len(raw))
	for pc, g := range raw {
		out[NormalizePostcode(pc)] = g
	}
	return out, nil
}
