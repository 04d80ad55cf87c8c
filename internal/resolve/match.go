package resolve

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jobboard-cli/internal/model"
)

const (
	// DefaultThreshold is the minimum score for an accepted match.
	DefaultThreshold = 0.50
	// DefaultNearMissBand is the width of the review band below the threshold.
	DefaultNearMissBand = 0.10
)

// BestMatch scans corpus for the target most similar to src. The first
// target reaching the maximum score wins. It returns (model.NoTarget, 0)
// when the corpus is empty or nothing scores above zero.
func BestMatch(src TokenSet, corpus []TokenSet) (int, float64) {
	bestIdx, bestScore := model.NoTarget, 0.0
	for i, tgt := range corpus {
		if sc := Similarity(src, tgt); sc > bestScore {
			bestIdx, bestScore = i, sc
		}
	}
	return bestIdx, bestScore
}

// Classify reports whether score clears threshold.
func Classify(score, threshold float64) bool {
	return score >= threshold
}

// IsNearMiss reports whether score falls in [threshold-band, threshold).
// The score and the lower edge are both compared at report precision.
func IsNearMiss(score, threshold, band float64) bool {
	return !Classify(score, threshold) && RoundScore(score) >= RoundScore(threshold-band)
}

// RoundScore rounds a score to three decimals.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}

// Matcher links each source record to its best target.
type Matcher struct {
	Threshold    float64
	NearMissBand float64
	// Workers > 1 shards the source list across goroutines. Output is
	// identical to the sequential scan.
	Workers int
	// Observer, when set, is notified once a run completes.
	Observer Observer
}

// Observer receives the outcome of a match run.
type Observer interface {
	ObserveRun(res *Result, elapsed time.Duration)
}

// NewMatcher returns a sequential Matcher with default thresholds.
func NewMatcher() *Matcher {
	return &Matcher{
		Threshold:    DefaultThreshold,
		NearMissBand: DefaultNearMissBand,
		Workers:      1,
	}
}

// Run tokenizes both corpora, selects the best target for every source
// record, classifies it and detects ambiguous targets. The corpora are
// read-only for the duration of the run.
func (m *Matcher) Run(ctx context.Context, sources []model.SourceRecord, targets []model.TargetRecord) (*Result, error) {
	if m.Threshold < 0 || m.Threshold > 1 {
		return nil, eris.Errorf("resolve: threshold %v outside [0, 1]", m.Threshold)
	}
	log := zap.L().With(zap.String("component", "resolve"))
	start := time.Now()

	srcTokens := tokenizeAll(sources, func(s model.SourceRecord) string { return s.Name })
	tgtTokens := tokenizeAll(targets, func(t model.TargetRecord) string { return t.Name })

	candidates := make([]model.MatchCandidate, len(sources))
	scan := func(i int) {
		idx, score := BestMatch(srcTokens[i], tgtTokens)
		candidates[i] = model.MatchCandidate{
			SourceIndex: i,
			TargetIndex: idx,
			Score:       score,
			Accepted:    idx != model.NoTarget && Classify(score, m.Threshold),
		}
	}

	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 || len(sources) < 2 {
		for i := range sources {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "resolve: match run cancelled")
			}
			scan(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, shard := range shards(len(sources), workers) {
			g.Go(func() error {
				for i := shard.lo; i < shard.hi; i++ {
					if err := gctx.Err(); err != nil {
						return eris.Wrap(err, "resolve: match run cancelled")
					}
					// Each index is written by exactly one goroutine.
					scan(i)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Sources:      sources,
		Targets:      targets,
		SourceTokens: srcTokens,
		TargetTokens: tgtTokens,
		Candidates:   candidates,
		Threshold:    m.Threshold,
		NearMissBand: m.NearMissBand,
	}
	res.Ambiguities = DetectAmbiguities(res.Candidates, sources, targets)

	sum := res.Summary()
	log.Info("match run complete",
		zap.Int("sources", sum.Sources),
		zap.Int("targets", sum.Targets),
		zap.Int("accepted", sum.Accepted),
		zap.Int("unmatched", sum.Sources-sum.Accepted),
		zap.Int("near_misses", sum.NearMisses),
		zap.Int("ambiguous_targets", sum.AmbiguousTargets),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	for _, a := range res.Ambiguities {
		names := make([]string, len(a.Claims))
		for i, c := range a.Claims {
			names[i] = c.SourceName
		}
		log.Warn("register entry claimed by more than one hub company",
			zap.String("target", a.TargetName),
			zap.String("registration_id", a.RegistrationID),
			zap.Strings("claimants", names),
		)
	}

	if m.Observer != nil {
		m.Observer.ObserveRun(res, time.Since(start))
	}
	return res, nil
}

type span struct{ lo, hi int }

// shards splits [0, n) into at most k contiguous ranges.
func shards(n, k int) []span {
	if k > n {
		k = n
	}
	size := (n + k - 1) / k
	out := make([]span, 0, k)
	for lo := 0; lo < n; lo += size {
		out = append(out, span{lo: lo, hi: min(lo+size, n)})
	}
	return out
}

func tokenizeAll[T any](recs []T, name func(T) string) []TokenSet {
	out := make([]TokenSet, len(recs))
	for i, r := range recs {
		out[i] = Tokenize(name(r))
	}
	return out
}
