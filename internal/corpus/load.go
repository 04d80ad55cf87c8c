// Package corpus loads the hub and registry company lists and reads and
// writes the merge stage's tabular outputs.
package corpus

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/fetcher"
	"github.com/sells-group/jobboard-cli/internal/model"
)

// Hub column names.
const (
	ColName = "company_name"
	ColURL  = "url"
)

const hubPrefix = "hub_"

// fixedColumns are the master columns hub metadata may not reuse.
var fixedColumns = []string{
	ColSource, ColRegistrationID, ColStatus, ColClassificationCode,
	ColRegistryValidated, ColHasIdentifyingURL, ColConcernFlag, ColMatchScore, ColMatchSourceName,
}

// RegistryColumns maps register extract headers onto registry fields.
type RegistryColumns struct {
	RegistrationID     string   `yaml:"registration_id" mapstructure:"registration_id"`
	Status             string   `yaml:"status" mapstructure:"status"`
	ClassificationCode string   `yaml:"classification_code" mapstructure:"classification_code"`
	Address            []string `yaml:"address" mapstructure:"address"`
}

// DefaultRegistryColumns matches the register's bulk CSV extract.
func DefaultRegistryColumns() RegistryColumns {
	return RegistryColumns{
		RegistrationID:     "company_number",
		Status:             "status",
		ClassificationCode: "sic_code_1",
		Address:            []string{"postcode", "address", "company_size", "incorporated", "last_accounts"},
	}
}

// Hub is the loaded source corpus.
type Hub struct {
	Records []model.SourceRecord
	// MetadataColumns lists provenance columns in header order.
	MetadataColumns []string
}

// Registry is the loaded target corpus.
type Registry struct {
	Records        []model.TargetRecord
	AddressColumns []string
}

// LoadHub reads the curated hub list. company_name is required and url is
// optional; every other column is kept as provenance metadata. A metadata
// column whose name collides with a fixed master column or one of reserved
// is renamed with a hub_ prefix.
func LoadHub(ctx context.Context, path string, reserved ...string) (*Hub, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require(ColName); err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(tbl.Header)+len(fixedColumns)+len(reserved))
	for _, col := range tbl.Header {
		taken[col] = true
	}
	clash := make(map[string]bool, len(fixedColumns)+len(reserved))
	for _, col := range append(slices.Clone(fixedColumns), reserved...) {
		taken[col] = true
		clash[col] = true
	}

	h := &Hub{}
	var sourceCols []string
	for _, col := range tbl.Header {
		if col == ColName || col == ColURL || col == "" {
			continue
		}
		name := col
		if clash[col] {
			name = hubPrefix + col
			for taken[name] {
				name = hubPrefix + name
			}
			taken[name] = true
			zap.L().Warn("corpus: renamed clashing hub column",
				zap.String("column", col), zap.String("renamed", name))
		}
		sourceCols = append(sourceCols, col)
		h.MetadataColumns = append(h.MetadataColumns, name)
	}

	h.Records = make([]model.SourceRecord, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec := model.SourceRecord{
			Name: tbl.Value(row, ColName),
			URL:  strings.TrimSpace(tbl.Value(row, ColURL)),
		}
		if len(h.MetadataColumns) > 0 {
			rec.Metadata = make(map[string]string, len(h.MetadataColumns))
			for i, col := range h.MetadataColumns {
				rec.Metadata[col] = tbl.Value(row, sourceCols[i])
			}
		}
		h.Records = append(h.Records, rec)
	}
	return h, nil
}

// LoadRegistry reads the register extract. company_name and the mapped
// registration, status and classification columns are required; address
// columns missing from the file are left empty.
func LoadRegistry(ctx context.Context, path string, cols RegistryColumns) (*Registry, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require(ColName, cols.RegistrationID, cols.Status, cols.ClassificationCode); err != nil {
		return nil, err
	}
	for _, col := range cols.Address {
		if slices.Contains(fixedColumns, col) || col == ColName || col == ColURL {
			return nil, eris.Errorf("corpus: address column %q collides with a master column", col)
		}
	}

	r := &Registry{
		AddressColumns: cols.Address,
		Records:        make([]model.TargetRecord, 0, len(tbl.Rows)),
	}
	for _, row := range tbl.Rows {
		rec := model.TargetRecord{
			Name:               tbl.Value(row, ColName),
			RegistrationID:     strings.TrimSpace(tbl.Value(row, cols.RegistrationID)),
			Status:             tbl.Value(row, cols.Status),
			ClassificationCode: tbl.Value(row, cols.ClassificationCode),
			Address:            make(map[string]string, len(cols.Address)),
		}
		for _, col := range cols.Address {
			rec.Address[col] = tbl.Value(row, col)
		}
		r.Records = append(r.Records, rec)
	}
	return r, nil
}
