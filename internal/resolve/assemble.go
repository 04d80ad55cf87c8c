package resolve

import (
	"maps"
	"strings"

	"github.com/sells-group/jobboard-cli/internal/model"
)

// concernStatuses are register statuses that indicate a company in distress.
var concernStatuses = map[string]struct{}{
	"dissolved":              {},
	"liquidation":            {},
	"receivership":           {},
	"administration":         {},
	"voluntary arrangement":  {},
	"insolvency proceedings": {},
}

// IsConcernStatus reports whether status is one of the distress statuses.
// The comparison is a case-insensitive exact phrase match.
func IsConcernStatus(status string) bool {
	_, ok := concernStatuses[strings.ToLower(status)]
	return ok
}

// Assemble builds the master corpus from a match run: one record per source
// in source order, then one record per target not claimed by any accepted
// match, in target order.
func Assemble(sources []model.SourceRecord, targets []model.TargetRecord, candidates []model.MatchCandidate) []model.MasterRecord {
	claimed := make(map[int]bool, len(candidates))
	out := make([]model.MasterRecord, 0, len(sources)+len(targets))

	for i, src := range sources {
		rec := model.MasterRecord{
			Name:     src.Name,
			URL:      src.URL,
			Source:   model.ProvenanceHub,
			Metadata: maps.Clone(src.Metadata),
		}
		if i < len(candidates) {
			if c := candidates[i]; c.Accepted && c.HasTarget() {
				tgt := targets[c.TargetIndex]
				claimed[c.TargetIndex] = true
				score := RoundScore(c.Score)
				rec.Registry = model.RegistryFieldsFrom(tgt)
				rec.MatchScore = &score
				rec.MatchSourceName = tgt.Name
			}
		}
		out = append(out, withFlags(rec))
	}

	for i, tgt := range targets {
		if claimed[i] {
			continue
		}
		out = append(out, withFlags(model.MasterRecord{
			Name:     tgt.Name,
			Source:   model.ProvenanceRegistry,
			Registry: model.RegistryFieldsFrom(tgt),
		}))
	}
	return out
}

func withFlags(rec model.MasterRecord) model.MasterRecord {
	rec.RegistryValidated = rec.Registry != nil
	rec.HasIdentifyingURL = strings.TrimSpace(rec.URL) != ""
	rec.ConcernFlag = rec.Registry != nil && IsConcernStatus(rec.Registry.Status)
	return rec
}
