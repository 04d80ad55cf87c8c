// Package geo turns registry postcodes into map coordinates: the geocode
// ledger stage and the placement rules used by the site builder.
package geo

import (
	"strings"

	"github.com/sells-group/jobboard-cli/internal/model"
)

// NormalizePostcode trims and upper-cases a postcode.
func NormalizePostcode(pc string) string {
	return strings.ToUpper(strings.TrimSpace(pc))
}

// OutwardCode returns the district half of a postcode ("CB4 0WS" -> "CB4").
func OutwardCode(pc string) string {
	f := strings.Fields(NormalizePostcode(pc))
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Postcodes returns the unique non-empty normalized postcodes of records in
// first-seen order.
func Postcodes(records []model.MasterRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		pc := NormalizePostcode(r.Postcode())
		if pc == "" || seen[pc] {
			continue
		}
		seen[pc] = true
		out = append(out, pc)
	}
	return out
}
