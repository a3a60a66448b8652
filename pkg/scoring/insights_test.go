package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/esgdiag/esg-engine/pkg/models"
)

func TestGenerateInsights_AlwaysThreeInPillarOrder(t *testing.T) {
	cases := []Scores{
		{},
		{Environmental: 100, Social: 100, Governance: 100},
		{Environmental: 12, Social: 65, Governance: 91},
	}

	for _, s := range cases {
		insights := GenerateInsights(s)
		assert.Len(t, insights, 3)
		assert.Equal(t, models.PillarEnvironmental, insights[0].Pillar)
		assert.Equal(t, models.PillarSocial, insights[1].Pillar)
		assert.Equal(t, models.PillarGovernance, insights[2].Pillar)
	}
}

func TestGenerateInsights_Bands(t *testing.T) {
	tests := []struct {
		score    float64
		category string
	}{
		{0, InsightCritical},
		{59.999, InsightCritical},
		{60, InsightAttention},
		{79.999, InsightAttention},
		{80, InsightExcellent},
		{100, InsightExcellent},
	}

	for _, tt := range tests {
		insights := GenerateInsights(Scores{Environmental: tt.score})
		assert.Equal(t, tt.category, insights[0].Category, "score %v", tt.score)
	}
}

func TestGenerateInsights_TemplatesPopulated(t *testing.T) {
	insights := GenerateInsights(Scores{Environmental: 10, Social: 70, Governance: 95})
	for _, in := range insights {
		assert.NotEmpty(t, in.Title, "pillar %s", in.Pillar)
		assert.NotEmpty(t, in.Description, "pillar %s", in.Pillar)
		assert.Equal(t, in.Pillar.DisplayName(), in.PillarName)
	}
}

func TestGenerateInsights_PureRecomputation(t *testing.T) {
	s := Scores{Environmental: 45, Social: 62, Governance: 88}
	assert.Equal(t, GenerateInsights(s), GenerateInsights(s))
}
