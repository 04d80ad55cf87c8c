package corpus

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/db"
	"github.com/sells-group/jobboard-cli/internal/model"
)

// DefaultPublishTable receives the master corpus on publish.
const DefaultPublishTable = "master_companies"

// TableSpec returns the Postgres table layout for the master corpus.
func (l Layout) TableSpec(table string) db.TableSpec {
	spec := db.TableSpec{Table: table}
	for _, col := range l.Header() {
		typ := "TEXT"
		switch col {
		case ColRegistryValidated, ColHasIdentifyingURL, ColConcernFlag:
			typ = "BOOLEAN NOT NULL"
		case ColMatchScore:
			typ = "DOUBLE PRECISION"
		}
		spec.Columns = append(spec.Columns, db.Column{Name: col, Type: typ})
	}
	return spec
}

// PublishMaster replaces the contents of table with the master corpus.
func PublishMaster(ctx context.Context, pool db.Pool, table string, layout Layout, records []model.MasterRecord) (int64, error) {
	spec := layout.TableSpec(table)
	header := layout.Header()

	rows := make([][]any, len(records))
	for i, m := range records {
		cells := layout.MasterRow(m)
		row := make([]any, len(cells))
		for j, col := range header {
			switch col {
			case ColRegistryValidated:
				row[j] = m.RegistryValidated
			case ColHasIdentifyingURL:
				row[j] = m.HasIdentifyingURL
			case ColConcernFlag:
				row[j] = m.ConcernFlag
			case ColMatchScore:
				if m.MatchScore != nil {
					row[j] = *m.MatchScore
				}
			default:
				if cells[j] != "" {
					row[j] = cells[j]
				}
			}
		}
		rows[i] = row
	}

	n, err := db.ReplaceRows(ctx, pool, spec, rows)
	if err != nil {
		return 0, err
	}
	zap.L().Info("published master corpus",
		zap.String("table", table),
		zap.Int64("rows", n),
	)
	return n, nil
}
