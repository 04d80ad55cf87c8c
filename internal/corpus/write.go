package corpus

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobboard-cli/internal/fetcher"
	"github.com/sells-group/jobboard-cli/internal/model"
)

// Output file names under the configured output directory.
const (
	MasterFile      = "master_companies.csv"
	MatchReportFile = "match_report.csv"
	NearMissFile    = "near_misses.csv"
	AmbiguityFile   = "ambiguous_matches.csv"
)

// Fixed master corpus columns.
const (
	ColSource             = "source"
	ColRegistrationID     = "registration_id"
	ColStatus             = "status"
	ColClassificationCode = "classification_code"
	ColRegistryValidated  = "registry_validated"
	ColHasIdentifyingURL  = "has_identifying_url"
	ColConcernFlag        = "concern_flag"
	ColMatchScore         = "match_score"
	ColMatchSourceName    = "match_source_name"
)

// ReportHeader is the match report column order.
var ReportHeader = []string{
	"source_name", "candidate_name", "score", "accepted", "near_miss",
	"claim_count", "source_tokens", "candidate_tokens",
}

// AmbiguityHeader is the ambiguity report column order: one row per claim.
var AmbiguityHeader = []string{
	"target_name", "registration_id", "claim_count", "source_name", "score",
}

// Layout names the variable master columns.
type Layout struct {
	MetadataColumns []string
	AddressColumns  []string
}

// Header returns the master corpus header for the layout.
func (l Layout) Header() []string {
	h := []string{ColName, ColURL, ColSource}
	h = append(h, l.MetadataColumns...)
	h = append(h, ColRegistrationID, ColStatus, ColClassificationCode)
	h = append(h, l.AddressColumns...)
	return append(h, ColRegistryValidated, ColHasIdentifyingURL, ColConcernFlag, ColMatchScore, ColMatchSourceName)
}

// MasterRow flattens a master record into cells matching Header.
func (l Layout) MasterRow(m model.MasterRecord) []string {
	row := []string{m.Name, m.URL, string(m.Source)}
	for _, col := range l.MetadataColumns {
		row = append(row, m.Metadata[col])
	}
	if m.Registry != nil {
		row = append(row, m.Registry.RegistrationID, m.Registry.Status, m.Registry.ClassificationCode)
	} else {
		row = append(row, "", "", "")
	}
	for _, col := range l.AddressColumns {
		row = append(row, m.RegistryValue(col))
	}
	score := ""
	if m.MatchScore != nil {
		score = FormatScore(*m.MatchScore)
	}
	return append(row,
		strconv.FormatBool(m.RegistryValidated),
		strconv.FormatBool(m.HasIdentifyingURL),
		strconv.FormatBool(m.ConcernFlag),
		score,
		m.MatchSourceName,
	)
}

// FormatScore renders a score with at most three decimals.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// WriteFile writes a CSV file, creating parent directories.
func WriteFile(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "corpus: create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "corpus: create %s", path)
	}
	if err := fetcher.WriteCSV(f, header, rows); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "corpus: write %s", path)
	}
	return eris.Wrapf(f.Close(), "corpus: close %s", path)
}

// WriteMaster writes the master corpus.
func WriteMaster(path string, layout Layout, records []model.MasterRecord) error {
	rows := make([][]string, len(records))
	for i, m := range records {
		rows[i] = layout.MasterRow(m)
	}
	return WriteFile(path, layout.Header(), rows)
}

func reportRows(rows []model.MatchReportRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.SourceName,
			r.CandidateName,
			FormatScore(r.Score),
			strconv.FormatBool(r.Accepted),
			strconv.FormatBool(r.NearMiss),
			strconv.Itoa(r.ClaimCount),
			r.SourceTokens,
			r.CandidateTokens,
		}
	}
	return out
}

// WriteMatchReport writes one audit row per source record.
func WriteMatchReport(path string, rows []model.MatchReportRow) error {
	return WriteFile(path, ReportHeader, reportRows(rows))
}

// WriteNearMisses writes the review band rows.
func WriteNearMisses(path string, rows []model.MatchReportRow) error {
	return WriteFile(path, ReportHeader, reportRows(rows))
}

// WriteAmbiguities writes every claim on a multiply-claimed target.
func WriteAmbiguities(path string, ambiguities []model.Ambiguity) error {
	var rows [][]string
	for _, a := range ambiguities {
		for _, c := range a.Claims {
			rows = append(rows, []string{
				a.TargetName,
				a.RegistrationID,
				strconv.Itoa(len(a.Claims)),
				c.SourceName,
				FormatScore(c.Score),
			})
		}
	}
	return WriteFile(path, AmbiguityHeader, rows)
}

// ReadMaster reloads a master corpus written by WriteMaster.
func ReadMaster(ctx context.Context, path string) ([]model.MasterRecord, Layout, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, Layout{}, err
	}
	if err := tbl.Require(ColName, ColURL, ColSource, ColRegistrationID, ColStatus,
		ColClassificationCode, ColRegistryValidated, ColHasIdentifyingURL, ColConcernFlag,
		ColMatchScore, ColMatchSourceName); err != nil {
		return nil, Layout{}, err
	}

	src := slices.Index(tbl.Header, ColSource)
	reg := slices.Index(tbl.Header, ColRegistrationID)
	cls := slices.Index(tbl.Header, ColClassificationCode)
	val := slices.Index(tbl.Header, ColRegistryValidated)
	if src > reg || cls > val {
		return nil, Layout{}, eris.Errorf("corpus: %s has unexpected column order", path)
	}
	layout := Layout{
		MetadataColumns: slices.Clone(tbl.Header[src+1 : reg]),
		AddressColumns:  slices.Clone(tbl.Header[cls+1 : val]),
	}

	records := make([]model.MasterRecord, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		m := model.MasterRecord{
			Name:              tbl.Value(row, ColName),
			URL:               tbl.Value(row, ColURL),
			Source:            model.Provenance(tbl.Value(row, ColSource)),
			RegistryValidated: parseBool(tbl.Value(row, ColRegistryValidated)),
			HasIdentifyingURL: parseBool(tbl.Value(row, ColHasIdentifyingURL)),
			ConcernFlag:       parseBool(tbl.Value(row, ColConcernFlag)),
			MatchSourceName:   tbl.Value(row, ColMatchSourceName),
		}
		if m.Source == model.ProvenanceHub && len(layout.MetadataColumns) > 0 {
			m.Metadata = make(map[string]string, len(layout.MetadataColumns))
			for _, col := range layout.MetadataColumns {
				m.Metadata[col] = tbl.Value(row, col)
			}
		}
		if m.RegistryValidated {
			m.Registry = &model.RegistryFields{
				Name:               tbl.Value(row, ColMatchSourceName),
				RegistrationID:     tbl.Value(row, ColRegistrationID),
				Status:             tbl.Value(row, ColStatus),
				ClassificationCode: tbl.Value(row, ColClassificationCode),
				Address:            make(map[string]string, len(layout.AddressColumns)),
			}
			if m.Registry.Name == "" {
				m.Registry.Name = m.Name
			}
			for _, col := range layout.AddressColumns {
				m.Registry.Address[col] = tbl.Value(row, col)
			}
		}
		if s := strings.TrimSpace(tbl.Value(row, ColMatchScore)); s != "" {
			score, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, Layout{}, eris.Wrapf(err, "corpus: %s row %d: match_score", path, i+2)
			}
			m.MatchScore = &score
		}
		records = append(records, m)
	}
	return records, layout, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
