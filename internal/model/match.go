package model

// NoTarget marks a candidate with no best-matching target record.
const NoTarget = -1

// MatchCandidate is the matching outcome for one source record.
type MatchCandidate struct {
	SourceIndex int     `json:"source_index"`
	TargetIndex int     `json:"target_index"`
	Score       float64 `json:"score"`
	Accepted    bool    `json:"accepted"`
}

// HasTarget reports whether any target scored above zero.
func (c MatchCandidate) HasTarget() bool {
	return c.TargetIndex != NoTarget
}

// MatchReportRow is one audit-trail row, produced for every source record
// regardless of acceptance.
type MatchReportRow struct {
	SourceName      string  `json:"source_name"`
	CandidateName   string  `json:"candidate_name"`
	Score           float64 `json:"score"`
	Accepted        bool    `json:"accepted"`
	NearMiss        bool    `json:"near_miss"`
	ClaimCount      int     `json:"claim_count"`
	SourceTokens    string  `json:"source_tokens"`
	CandidateTokens string  `json:"candidate_tokens"`
}

// Claim is one accepted source record pointing at a target.
type Claim struct {
	SourceIndex int     `json:"source_index"`
	SourceName  string  `json:"source_name"`
	Score       float64 `json:"score"`
}

// Ambiguity is a target record claimed by more than one accepted source.
type Ambiguity struct {
	TargetIndex    int     `json:"target_index"`
	TargetName     string  `json:"target_name"`
	RegistrationID string  `json:"registration_id"`
	Claims         []Claim `json:"claims"`
}
