package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Column is one column of a published table.
type Column struct {
	Name string
	Type string // SQL type, e.g. "TEXT", "BOOLEAN"
}

// TableSpec describes a table rebuilt wholesale on every publish.
type TableSpec struct {
	Table   string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (s TableSpec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL returns the CREATE TABLE IF NOT EXISTS statement for the spec.
func (s TableSpec) CreateSQL() string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sanitizeTable(s.Table), strings.Join(defs, ", "))
}

// ReplaceRows creates the table when missing, then truncates it and copies
// rows in a single transaction. Readers see either the old or the new
// contents.
func ReplaceRows(ctx context.Context, pool Pool, spec TableSpec, rows [][]any) (int64, error) {
	if len(spec.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}

	if _, err := pool.Exec(ctx, spec.CreateSQL()); err != nil {
		return 0, eris.Wrapf(err, "db: replace: create %s", spec.Table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}

	n, err := replaceInTx(ctx, tx, spec, rows)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

func replaceInTx(ctx context.Context, tx pgx.Tx, spec TableSpec, rows [][]any) (int64, error) {
	if _, err := tx.Exec(ctx, "TRUNCATE "+sanitizeTable(spec.Table)); err != nil {
		return 0, eris.Wrapf(err, "db: replace: truncate %s", spec.Table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := tx.CopyFrom(ctx, identifier(spec.Table), spec.ColumnNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace: COPY INTO %s", spec.Table)
	}
	return n, nil
}
