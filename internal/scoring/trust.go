package scoring

import (
	"math"

	"earnradar/internal/models"
)

// DefaultTrustScore substitutes for steps whose provider carries no native
// trust signal (score absent or zero).
const DefaultTrustScore = 80

type TrustAggregate struct {
	TrustScoreCached    int   `json:"trust_score_cached"`
	StepsTrustBreakdown []int `json:"steps_trust_breakdown"`
}

// AggregateTrustScore computes a strategy's cached trust score from its
// ordered steps. The cached value is the mean of the breakdown, rounded half
// up. An empty step list yields DefaultTrustScore with an empty breakdown.
func AggregateTrustScore(steps []models.Opportunity) TrustAggregate {
	breakdown := make([]int, 0, len(steps))
	if len(steps) == 0 {
		return TrustAggregate{TrustScoreCached: DefaultTrustScore, StepsTrustBreakdown: breakdown}
	}

	sum := 0
	for _, step := range steps {
		score := int(step.TrustScore)
		if score == 0 {
			score = DefaultTrustScore
		}
		breakdown = append(breakdown, score)
		sum += score
	}

	mean := float64(sum) / float64(len(breakdown))
	return TrustAggregate{
		TrustScoreCached:    int(math.Floor(mean + 0.5)),
		StepsTrustBreakdown: breakdown,
	}
}
