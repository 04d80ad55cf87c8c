package enrich

import (
	"cmp"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strconv"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/job"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/store"
)

// File is the enriched corpus file name.
const File = "enriched_companies.csv"

// Columns are the enrichment columns appended after the master columns.
var Columns = []string{
	"description", "sector_tags", "stage", "tech_keywords", "employee_est",
	"hiring_status", "founded_year", "hq_city", "enrich_error",
}

// Run enriches every record not yet in the enrichment ledger.
func (e *Enricher) Run(ctx context.Context, ledger store.Ledger, records []model.MasterRecord) (job.Stats, error) {
	r := &job.Runner[model.MasterRecord, model.Enrichment]{
		Ledger:      ledger,
		Stage:       Stage,
		Concurrency: e.cfg.Concurrency,
		Key:         func(m model.MasterRecord) string { return m.Name },
		Process:     e.Enrich,
	}
	return r.Run(ctx, records)
}

// Load returns recorded enrichments keyed by company name.
func Load(ctx context.Context, ledger store.Ledger) (map[string]model.Enrichment, error) {
	return job.Results[model.Enrichment](ctx, ledger, Stage)
}

// Join layers enrichments over master records in master order. Records
// without an enrichment are left out.
func Join(records []model.MasterRecord, enrichments map[string]model.Enrichment) []model.EnrichedRecord {
	var out []model.EnrichedRecord
	for _, m := range records {
		en, ok := enrichments[m.Name]
		if !ok {
			continue
		}
		out = append(out, model.EnrichedRecord{Master: m, Enrichment: en})
	}
	return out
}

// Write writes the enriched corpus: master columns then enrichment columns.
func Write(path string, layout corpus.Layout, records []model.EnrichedRecord) error {
	header := append(layout.Header(), Columns...)
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = append(layout.MasterRow(r.Master), enrichmentRow(r.Enrichment)...)
	}
	return corpus.WriteFile(path, header, rows)
}

func enrichmentRow(e model.Enrichment) []string {
	tags := e.SectorTags
	if tags == nil {
		tags = []string{}
	}
	// Marshal cannot fail on a []string.
	tagsJSON, _ := json.Marshal(tags)
	year := ""
	if e.FoundedYear != nil {
		year = strconv.Itoa(*e.FoundedYear)
	}
	return []string{
		e.Description, string(tagsJSON), e.Stage, e.TechKeywords, e.EmployeeEst,
		e.HiringStatus, year, e.HQCity, e.Error,
	}
}

// Count is a label with its frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary tallies a set of enrichments.
type Summary struct {
	Total           int     `json:"total"`
	WithDescription int     `json:"with_description"`
	Errors          int     `json:"errors"`
	Stages          []Count `json:"stages"`
	TopSectorTags   []Count `json:"top_sector_tags"`
}

// Summarize counts descriptions, errors, stages and the topN sector tags.
func Summarize(enrichments map[string]model.Enrichment, topN int) Summary {
	s := Summary{Total: len(enrichments)}
	stages := make(map[string]int)
	tags := make(map[string]int)
	for _, e := range enrichments {
		if e.Description != "" {
			s.WithDescription++
		}
		if e.Error != "" {
			s.Errors++
			continue
		}
		stages[e.Stage]++
		for _, t := range e.SectorTags {
			tags[t]++
		}
	}
	s.Stages = ranked(stages, 0)
	s.TopSectorTags = ranked(tags, topN)
	return s
}

// ranked orders counts descending, ties by label; n <= 0 keeps all.
func ranked(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for _, label := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, Count{Label: label, Count: counts[label]})
	}
	slices.SortStableFunc(out, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
