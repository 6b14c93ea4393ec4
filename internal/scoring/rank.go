package scoring

import "oc-checklist-service/internal/domain"

// Threshold maps a minimum percent to a rank.
type Threshold struct {
	MinPercent float64
	Rank       domain.Rank
}

// DefaultThresholds is the OC rank policy, highest threshold first.
var DefaultThresholds = []Threshold{
	{MinPercent: 90, Rank: domain.RankSAT},
	{MinPercent: 80, Rank: domain.RankOT},
	{MinPercent: 70, Rank: domain.RankBT},
	{MinPercent: 0, Rank: domain.RankSBT},
}

// Ranker picks a rank from an ordered threshold table.
type Ranker struct {
	thresholds []Threshold
	floor      domain.Rank
}

// NewRanker builds a Ranker. Thresholds must be ordered by MinPercent
// descending; the last entry is also used for percents below every minimum.
func NewRanker(thresholds []Threshold) Ranker {
	r := Ranker{thresholds: thresholds, floor: domain.RankSBT}
	if len(thresholds) > 0 {
		r.floor = thresholds[len(thresholds)-1].Rank
	}
	return r
}

// Rank returns the first rank whose MinPercent is at or below percent.
func (r Ranker) Rank(percent float64) domain.Rank {
	for _, t := range r.thresholds {
		if percent >= t.MinPercent {
			return t.Rank
		}
	}
	return r.floor
}

var defaultRanker = NewRanker(DefaultThresholds)

// RankFor applies DefaultThresholds.
func RankFor(percent float64) domain.Rank {
	return defaultRanker.Rank(percent)
}
