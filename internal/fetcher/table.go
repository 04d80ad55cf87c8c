// Package fetcher reads and writes the tabular company lists the pipeline
// runs on: CSV and tab-separated exports, or the first sheet of an XLSX
// workbook.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows read from a tabular file.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// ReadTable loads the file at path, choosing the parser by extension:
// .xlsx reads the first sheet, .tsv splits on tabs and anything else is
// CSV. The first row is the header; header cells are trimmed and the first
// of any duplicated names wins.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readWorkbook(path)
	case ".tsv":
		rows, err = readDelimitedFile(ctx, path, '\t')
	default:
		rows, err = readDelimitedFile(ctx, path, ',')
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: %s has no header row", path)
	}

	t := &Table{Path: path, Header: rows[0], Rows: rows[1:], index: make(map[string]int, len(rows[0]))}
	for i := range t.Header {
		t.Header[i] = strings.TrimSpace(t.Header[i])
		if _, seen := t.index[t.Header[i]]; !seen {
			t.index[t.Header[i]] = i
		}
	}
	return t, nil
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require returns an error naming the file and the first missing column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return eris.Errorf("fetcher: %s is missing required column %q", t.Path, c)
		}
	}
	return nil
}

// Value returns the cell for col in row, or "" when the column is absent or
// the row is short.
func (t *Table) Value(row []string, col string) string {
	if i, ok := t.index[col]; ok && i < len(row) {
		return row[i]
	}
	return ""
}

func readDelimitedFile(ctx context.Context, path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := readDelimited(ctx, f, comma)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", path)
	}
	return rows, nil
}
