// Package scoring implements the ESG scoring engine: pillar and overall
// scores from questionnaire responses, certification tiers, insights, and
// action plans. Everything here is a pure function over in-memory data;
// persistence is the caller's concern. The same computation serves both
// partial (in-progress) and final score requests.
package scoring

import (
	"github.com/esgdiag/esg-engine/pkg/models"
)

// Scores holds the computed pillar and overall scores, each on a 0-100 scale.
type Scores struct {
	Environmental float64 `json:"environmental"`
	Social        float64 `json:"social"`
	Governance    float64 `json:"governance"`
	Overall       float64 `json:"overall"`
}

// ByPillar returns the score for the given pillar.
func (s Scores) ByPillar(code models.PillarCode) float64 {
	switch code {
	case models.PillarEnvironmental:
		return s.Environmental
	case models.PillarSocial:
		return s.Social
	case models.PillarGovernance:
		return s.Governance
	}
	return 0
}

// ComputeScores computes per-pillar and overall scores from a response set.
//
// Per pillar: responses with a not_applicable evaluation are excluded from
// both numerator and denominator; the remaining evaluations map to ordinals
// 1-4 and the pillar score is sum/(count*4) scaled to 100. A pillar with no
// scored responses scores 0, never NaN. The overall score is the arithmetic
// mean of the three pillar scores; importance is deliberately not a weight
// in this aggregate.
func ComputeScores(responses []*models.Response) Scores {
	var sums [3]int
	var counts [3]int

	for _, r := range responses {
		ordinal, ok := r.Evaluation.Ordinal()
		if !ok {
			continue
		}
		idx, ok := pillarIndex(r.PillarCode)
		if !ok {
			continue
		}
		sums[idx] += ordinal
		counts[idx]++
	}

	s := Scores{
		Environmental: pillarScore(sums[0], counts[0]),
		Social:        pillarScore(sums[1], counts[1]),
		Governance:    pillarScore(sums[2], counts[2]),
	}
	s.Overall = (s.Environmental + s.Social + s.Governance) / 3
	return s
}

// pillarScore computes sum/(count*max) scaled to 100, guarding the
// zero-denominator case and clamping to [0, 100].
func pillarScore(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	score := float64(sum) / float64(count*models.EvaluationMaxOrdinal) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func pillarIndex(code models.PillarCode) (int, bool) {
	switch code {
	case models.PillarEnvironmental:
		return 0, true
	case models.PillarSocial:
		return 1, true
	case models.PillarGovernance:
		return 2, true
	}
	return 0, false
}

// Completion reports how much of the questionnaire has been answered:
// answered responses (including not_applicable ones) over total questions,
// as a 0-100 percentage. Used for the partial-score progress display.
func Completion(responses []*models.Response, totalQuestions int) float64 {
	if totalQuestions == 0 {
		return 0
	}
	pct := float64(len(responses)) / float64(totalQuestions) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
