package careers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/sells-group/jobboard-cli/internal/corpus"
	"github.com/sells-group/jobboard-cli/internal/job"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/store"
)

// File is the careers output file name.
const File = "careers.csv"

// Header is the careers.csv column order.
var Header = []string{
	"company_name", "company_url", "careers_url", "has_careers_page", "roles_json",
	"role_count", "contact_email", "apply_url", "summary", "scrape_status", "error",
}

// Targets returns the master records that have a website to crawl.
func Targets(records []model.MasterRecord) []model.MasterRecord {
	var out []model.MasterRecord
	for _, r := range records {
		if r.HasIdentifyingURL {
			out = append(out, r)
		}
	}
	return out
}

// Run crawls every target not yet in the careers ledger.
func (f *Finder) Run(ctx context.Context, ledger store.Ledger, records []model.MasterRecord) (job.Stats, error) {
	r := &job.Runner[model.MasterRecord, model.CareersResult]{
		Ledger:      ledger,
		Stage:       Stage,
		Concurrency: f.cfg.Concurrency,
		Key:         func(m model.MasterRecord) string { return m.Name },
		Process:     f.Find,
	}
	return r.Run(ctx, Targets(records))
}

// Load returns recorded careers results in the order they were first crawled.
func Load(ctx context.Context, ledger store.Ledger) ([]model.CareersResult, error) {
	keyed, err := job.Ordered[model.CareersResult](ctx, ledger, Stage)
	if err != nil {
		return nil, err
	}
	out := make([]model.CareersResult, len(keyed))
	for i, k := range keyed {
		out[i] = k.Value
	}
	return out, nil
}

// ByCompany indexes results by company name.
func ByCompany(results []model.CareersResult) map[string]model.CareersResult {
	out := make(map[string]model.CareersResult, len(results))
	for _, r := range results {
		out[r.CompanyName] = r
	}
	return out
}

// Row flattens a result into careers.csv cells.
func Row(r model.CareersResult) []string {
	roles := r.Roles
	if roles == nil {
		roles = []model.Role{}
	}
	// Role has only string fields, so Marshal cannot fail.
	rolesJSON, _ := json.Marshal(roles)
	return []string{
		r.CompanyName,
		r.CompanyURL,
		r.CareersURL,
		strconv.FormatBool(r.HasCareersPage),
		string(rolesJSON),
		strconv.Itoa(len(roles)),
		r.ContactEmail,
		r.ApplyURL,
		r.Summary,
		string(r.ScrapeStatus),
		r.Error,
	}
}

// Write writes careers.csv.
func Write(path string, results []model.CareersResult) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = Row(r)
	}
	return corpus.WriteFile(path, Header, rows)
}

// Summary tallies a set of careers results.
type Summary struct {
	Total          int `json:"total"`
	HasCareersPage int `json:"has_careers_page"`
	HasEmail       int `json:"has_contact_email"`
	Roles          int `json:"roles"`
	HomepageErrors int `json:"homepage_errors"`
}

// Summarize counts careers pages, contacts, roles and unreachable sites.
func Summarize(results []model.CareersResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.HasCareersPage {
			s.HasCareersPage++
		}
		if r.ContactEmail != "" {
			s.HasEmail++
		}
		s.Roles += len(r.Roles)
		if r.ScrapeStatus == model.ScrapeStatusHomepageError {
			s.HomepageErrors++
		}
	}
	return s
}
