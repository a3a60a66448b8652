package scoring

import (
	"sort"

	"github.com/esgdiag/esg-engine/pkg/models"
)

// Action plan priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ActionPlanEntry is a recommended action derived from a pillar's score
// band. Entries are recomputed on every read; the finalized-report flow may
// enrich and persist them separately.
type ActionPlanEntry struct {
	Pillar         models.PillarCode `json:"pillar"`
	Priority       string            `json:"priority"`
	Action         string            `json:"action"`
	ExpectedImpact string            `json:"expected_impact"`
	Timeline       string            `json:"timeline"`
}

type actionTemplate struct {
	action   string
	impact   string
	timeline string
}

// Two high-priority actions per pillar for scores below AttentionFloor.
var highPriorityActions = map[models.PillarCode][2]actionTemplate{
	models.PillarEnvironmental: {
		{
			action:   "Map energy and water consumption and set monthly reduction targets",
			impact:   "Immediate cost reduction and baseline for environmental indicators",
			timeline: "1-3 months",
		},
		{
			action:   "Implement waste separation and a certified disposal routine",
			impact:   "Regulatory compliance and reduced environmental liability",
			timeline: "1-3 months",
		},
	},
	models.PillarSocial: {
		{
			action:   "Formalize HR policies covering safety, anti-harassment, and benefits",
			impact:   "Lower labor risk and improved employee retention",
			timeline: "1-3 months",
		},
		{
			action:   "Launch a structured training and development program",
			impact:   "Higher productivity and measurable social indicators",
			timeline: "3-6 months",
		},
	},
	models.PillarGovernance: {
		{
			action:   "Publish a code of ethics and conduct with an anonymous reporting channel",
			impact:   "Foundation for compliance and stakeholder trust",
			timeline: "1-3 months",
		},
		{
			action:   "Separate personal and company finances with periodic independent review",
			impact:   "Transparent accounts ready for audits and investors",
			timeline: "3-6 months",
		},
	},
}

// One medium-priority action per pillar for scores in the attention band.
var mediumPriorityActions = map[models.PillarCode]actionTemplate{
	models.PillarEnvironmental: {
		action:   "Consolidate environmental indicators into a quarterly review with targets",
		impact:   "Consistent progress tracking across environmental practices",
		timeline: "3-6 months",
	},
	models.PillarSocial: {
		action:   "Define and track diversity, satisfaction, and turnover indicators",
		impact:   "Visibility into workforce health and early warning on issues",
		timeline: "3-6 months",
	},
	models.PillarGovernance: {
		action:   "Document decision processes and formalize management meeting routines",
		impact:   "Predictable governance and smoother succession or investment diligence",
		timeline: "3-6 months",
	},
}

// reportAction is the constant cross-pillar entry always appended.
var reportAction = ActionPlanEntry{
	Pillar:         models.PillarGovernance,
	Priority:       PriorityLow,
	Action:         "Publish an annual sustainability report covering all three pillars",
	ExpectedImpact: "Transparency with customers, investors, and partners",
	Timeline:       "6-12 months",
}

// GenerateActionPlan derives recommended actions from pillar scores.
// Per pillar: below AttentionFloor emits two high-priority entries, the
// attention band emits one medium-priority entry, and at or above
// ExcellentFloor emits none. The constant report-publishing entry is always
// appended, so the plan never comes back empty.
func GenerateActionPlan(s Scores) []ActionPlanEntry {
	entries := make([]ActionPlanEntry, 0, 7)
	for _, code := range models.PillarCodes {
		score := s.ByPillar(code)
		switch bandFor(score) {
		case InsightCritical:
			for _, tmpl := range highPriorityActions[code] {
				entries = append(entries, ActionPlanEntry{
					Pillar:         code,
					Priority:       PriorityHigh,
					Action:         tmpl.action,
					ExpectedImpact: tmpl.impact,
					Timeline:       tmpl.timeline,
				})
			}
		case InsightAttention:
			tmpl := mediumPriorityActions[code]
			entries = append(entries, ActionPlanEntry{
				Pillar:         code,
				Priority:       PriorityMedium,
				Action:         tmpl.action,
				ExpectedImpact: tmpl.impact,
				Timeline:       tmpl.timeline,
			})
		}
	}
	return append(entries, reportAction)
}

// Gap is a single question where the stated importance outruns the current
// evaluation. Gaps surface the respondent's own priorities in the action
// plan; they do not affect scores.
type Gap struct {
	QuestionID string            `json:"question_id"`
	Pillar     models.PillarCode `json:"pillar"`
	Importance models.Importance `json:"importance"`
	Evaluation models.Evaluation `json:"evaluation"`
	Severity   int               `json:"severity"`
}

// PriorityGaps returns responses whose importance ordinal exceeds their
// evaluation quality, ordered most severe first. Severity is the importance
// ordinal scaled by how far the evaluation sits below well_done;
// not_applicable responses are skipped.
func PriorityGaps(responses []*models.Response) []Gap {
	gaps := make([]Gap, 0)
	for _, r := range responses {
		ordinal, ok := r.Evaluation.Ordinal()
		if !ok {
			continue
		}
		shortfall := models.EvaluationMaxOrdinal - ordinal
		if shortfall == 0 || r.Importance.Ordinal() == 0 {
			continue
		}
		gaps = append(gaps, Gap{
			QuestionID: r.QuestionID.String(),
			Pillar:     r.PillarCode,
			Importance: r.Importance,
			Evaluation: r.Evaluation,
			Severity:   r.Importance.Ordinal() * shortfall,
		})
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Severity > gaps[j].Severity
	})
	return gaps
}
