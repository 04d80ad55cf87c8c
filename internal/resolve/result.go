package resolve

import (
	"cmp"
	"slices"

	"github.com/sells-group/jobboard-cli/internal/model"
)

// Result is the outcome of one match run. Candidates are indexed by source
// position.
type Result struct {
	Sources      []model.SourceRecord
	Targets      []model.TargetRecord
	SourceTokens []TokenSet
	TargetTokens []TokenSet
	Candidates   []model.MatchCandidate
	Ambiguities  []model.Ambiguity
	Threshold    float64
	NearMissBand float64
}

// Summary counts a run's outcomes by category.
type Summary struct {
	Sources          int `json:"sources"`
	Targets          int `json:"targets"`
	Accepted         int `json:"accepted"`
	NearMisses       int `json:"near_misses"`
	NoCandidate      int `json:"no_candidate"`
	AmbiguousTargets int `json:"ambiguous_targets"`
	ClaimedTargets   int `json:"claimed_targets"`
	UnclaimedTargets int `json:"unclaimed_targets"`
}

// Report returns one audit row per source record in source order.
func (r *Result) Report() []model.MatchReportRow {
	counts := ClaimCounts(r.Candidates)
	rows := make([]model.MatchReportRow, len(r.Candidates))
	for i, c := range r.Candidates {
		row := model.MatchReportRow{
			SourceName:   r.Sources[c.SourceIndex].Name,
			Score:        RoundScore(c.Score),
			Accepted:     c.Accepted,
			NearMiss:     IsNearMiss(c.Score, r.Threshold, r.NearMissBand),
			SourceTokens: r.SourceTokens[c.SourceIndex].String(),
		}
		if c.HasTarget() {
			row.CandidateName = r.Targets[c.TargetIndex].Name
			row.CandidateTokens = r.TargetTokens[c.TargetIndex].String()
			if c.Accepted {
				row.ClaimCount = counts[c.TargetIndex]
			}
		}
		rows[i] = row
	}
	return rows
}

// NearMisses returns the report rows in the review band, highest score first.
func (r *Result) NearMisses() []model.MatchReportRow {
	var out []model.MatchReportRow
	for _, row := range r.Report() {
		if row.NearMiss {
			out = append(out, row)
		}
	}
	slices.SortStableFunc(out, func(a, b model.MatchReportRow) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Accepted returns the accepted report rows, highest score first.
func (r *Result) Accepted() []model.MatchReportRow {
	var out []model.MatchReportRow
	for _, row := range r.Report() {
		if row.Accepted {
			out = append(out, row)
		}
	}
	slices.SortStableFunc(out, func(a, b model.MatchReportRow) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Assemble builds the master corpus for this run.
func (r *Result) Assemble() []model.MasterRecord {
	return Assemble(r.Sources, r.Targets, r.Candidates)
}

// Summary counts the run's outcomes.
func (r *Result) Summary() Summary {
	s := Summary{
		Sources:          len(r.Sources),
		Targets:          len(r.Targets),
		AmbiguousTargets: len(r.Ambiguities),
	}
	for _, c := range r.Candidates {
		switch {
		case c.Accepted:
			s.Accepted++
		case IsNearMiss(c.Score, r.Threshold, r.NearMissBand):
			s.NearMisses++
		}
		if !c.HasTarget() {
			s.NoCandidate++
		}
	}
	s.ClaimedTargets = len(ClaimCounts(r.Candidates))
	s.UnclaimedTargets = s.Targets - s.ClaimedTargets
	return s
}

// TopClassificationCodes returns the most common classification codes among
// accepted matches, most frequent first, ties by code.
func (r *Result) TopClassificationCodes(n int) []CodeCount {
	counts := make(map[string]int)
	for _, c := range r.Candidates {
		if !c.Accepted || !c.HasTarget() {
			continue
		}
		if code := r.Targets[c.TargetIndex].ClassificationCode; code != "" {
			counts[code]++
		}
	}
	out := make([]CodeCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, CodeCount{Code: code, Count: n})
	}
	slices.SortFunc(out, func(a, b CodeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CodeCount pairs a classification code with its frequency.
type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}
