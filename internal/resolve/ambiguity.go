package resolve

import (
	"slices"

	"github.com/sells-group/jobboard-cli/internal/model"
)

// DetectAmbiguities groups accepted candidates by target and returns every
// target claimed by more than one source, ordered by target index. Claims
// are listed in source order. Detection is advisory: no claim is dropped.
func DetectAmbiguities(candidates []model.MatchCandidate, sources []model.SourceRecord, targets []model.TargetRecord) []model.Ambiguity {
	claims := make(map[int][]model.Claim)
	for _, c := range candidates {
		if !c.Accepted || !c.HasTarget() {
			continue
		}
		claims[c.TargetIndex] = append(claims[c.TargetIndex], model.Claim{
			SourceIndex: c.SourceIndex,
			SourceName:  sources[c.SourceIndex].Name,
			Score:       c.Score,
		})
	}

	var out []model.Ambiguity
	for idx, cs := range claims {
		if len(cs) < 2 {
			continue
		}
		slices.SortFunc(cs, func(a, b model.Claim) int { return a.SourceIndex - b.SourceIndex })
		out = append(out, model.Ambiguity{
			TargetIndex:    idx,
			TargetName:     targets[idx].Name,
			RegistrationID: targets[idx].RegistrationID,
			Claims:         cs,
		})
	}
	slices.SortFunc(out, func(a, b model.Ambiguity) int { return a.TargetIndex - b.TargetIndex })
	return out
}

// ClaimCounts returns the number of accepted sources per target index.
func ClaimCounts(candidates []model.MatchCandidate) map[int]int {
	counts := make(map[int]int)
	for _, c := range candidates {
		if c.Accepted && c.HasTarget() {
			counts[c.TargetIndex]++
		}
	}
	return counts
}
