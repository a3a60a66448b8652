package scoring

import (
	"github.com/esgdiag/esg-engine/pkg/models"
)

// Insight categories by score band.
const (
	InsightCritical  = "critical"  // score < 60
	InsightAttention = "attention" // 60 <= score < 80
	InsightExcellent = "excellent" // score >= 80
)

// Insight band boundaries, lower-bound inclusive.
const (
	AttentionFloor = 60.0
	ExcellentFloor = 80.0
)

// Insight is a qualitative comment on one pillar's score band.
// Insights are recomputed on every read and never persisted.
type Insight struct {
	Pillar      models.PillarCode `json:"pillar"`
	PillarName  string            `json:"pillar_name"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
}

type insightTemplate struct {
	title       string
	description string
}

// Fixed templates: 3 pillars x 3 bands.
var insightTemplates = map[models.PillarCode]map[string]insightTemplate{
	models.PillarEnvironmental: {
		InsightCritical: {
			title:       "Environmental practices need urgent attention",
			description: "Key environmental controls such as waste management, energy use, and emissions tracking are missing or failing. Start with the basics: measure consumption and set reduction targets.",
		},
		InsightAttention: {
			title:       "Environmental management is taking shape",
			description: "Core environmental practices exist but are not yet consistent. Formalize policies and track indicators monthly to consolidate progress.",
		},
		InsightExcellent: {
			title:       "Environmental performance is a strength",
			description: "Environmental management is mature and well executed. Consider external certification and publishing your environmental indicators.",
		},
	},
	models.PillarSocial: {
		InsightCritical: {
			title:       "Social practices need urgent attention",
			description: "Workforce well-being, diversity, and community engagement show significant gaps. Prioritize formal HR policies and a safe-workplace program.",
		},
		InsightAttention: {
			title:       "Social practices are developing",
			description: "Social initiatives exist but lack structure and measurement. Define indicators for diversity, training, and employee satisfaction.",
		},
		InsightExcellent: {
			title:       "Social responsibility is a strength",
			description: "People and community practices are well established. Share results internally and externally to reinforce the culture.",
		},
	},
	models.PillarGovernance: {
		InsightCritical: {
			title:       "Governance needs urgent attention",
			description: "Essential governance structures such as codes of conduct, compliance controls, and transparent reporting are missing. Establish a code of ethics as the first step.",
		},
		InsightAttention: {
			title:       "Governance is maturing",
			description: "Governance foundations are present but inconsistently applied. Strengthen compliance routines and document decision processes.",
		},
		InsightExcellent: {
			title:       "Governance is a strength",
			description: "Governance practices are solid and transparent. Keep policies current and consider independent board oversight.",
		},
	},
}

// GenerateInsights classifies each pillar score into a band and returns one
// insight per pillar, always exactly three, in Environmental, Social,
// Governance order regardless of scores.
func GenerateInsights(s Scores) []Insight {
	insights := make([]Insight, 0, len(models.PillarCodes))
	for _, code := range models.PillarCodes {
		category := bandFor(s.ByPillar(code))
		tmpl := insightTemplates[code][category]
		insights = append(insights, Insight{
			Pillar:      code,
			PillarName:  code.DisplayName(),
			Category:    category,
			Title:       tmpl.title,
			Description: tmpl.description,
		})
	}
	return insights
}

// bandFor classifies a pillar score into its insight band.
func bandFor(score float64) string {
	switch {
	case score >= ExcellentFloor:
		return InsightExcellent
	case score >= AttentionFloor:
		return InsightAttention
	default:
		return InsightCritical
	}
}
