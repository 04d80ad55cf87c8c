package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// Spreadsheet exports often start with a UTF-8 byte order mark.
const bom = '\uFEFF'

// ctxCheckEvery is how many rows are read between cancellation checks.
const ctxCheckEvery = 1000

// readDelimited parses delimited text leniently: ragged rows and stray
// quotes in unquoted fields are accepted, a leading byte order mark is
// dropped.
func readDelimited(ctx context.Context, r io.Reader, comma rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if first, _, err := br.ReadRune(); err == nil && first != bom {
		_ = br.UnreadRune()
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: read cancelled")
		}
		row, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, row)
	}
}

// WriteCSV writes header and rows to w as CSV.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	// WriteAll flushes and reports any buffered write error.
	return eris.Wrap(cw.WriteAll(rows), "csv: write rows")
}
