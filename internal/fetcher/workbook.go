package fetcher

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readWorkbook returns the first sheet of an XLSX workbook as strings,
// without trailing blank rows. Cells keep their displayed formatting so
// registration numbers stored as text keep leading zeros.
func readWorkbook(path string) ([][]string, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range wb.Sheets[0].Rows {
		var cells []string
		if row != nil {
			cells = make([]string, len(row.Cells))
			for i, c := range row.Cells {
				cells[i] = c.String()
			}
		}
		rows = append(rows, cells)
	}

	for len(rows) > 0 && !slices.ContainsFunc(rows[len(rows)-1], func(s string) bool { return s != "" }) {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}
