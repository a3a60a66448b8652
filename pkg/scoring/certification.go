package scoring

// Certification levels.
const (
	LevelBronze = "bronze"
	LevelSilver = "silver"
	LevelGold   = "gold"
)

// Tier boundaries, lower-bound inclusive: [0,40) bronze, [40,70) silver,
// [70,100] gold. Comparison happens on the raw float with no rounding.
const (
	SilverFloor = 40.0
	GoldFloor   = 70.0
)

// Certification describes the tier an overall score falls into, with the
// static display metadata for that tier.
type Certification struct {
	Level           string   `json:"level"`
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Color           string   `json:"color"`
	ScoreRange      string   `json:"score_range"`
	Characteristics []string `json:"characteristics"`
}

// ResolveCertification maps an overall score to its certification tier.
// Total on [0,100]: every score maps to exactly one tier.
func ResolveCertification(overall float64) Certification {
	switch {
	case overall >= GoldFloor:
		return Certification{
			Level:      LevelGold,
			Name:       "Gold",
			Title:      "ESG Gold Certification",
			Message:    "Your organization demonstrates ESG leadership and mature sustainability practices.",
			Color:      "#D4AF37",
			ScoreRange: "70-100",
			Characteristics: []string{
				"Consolidated ESG practices across all pillars",
				"Sustainability embedded in strategy and governance",
				"Ready for external reporting and assurance",
			},
		}
	case overall >= SilverFloor:
		return Certification{
			Level:      LevelSilver,
			Name:       "Silver",
			Title:      "ESG Silver Certification",
			Message:    "Your organization has structured ESG practices with clear room to advance.",
			Color:      "#A8A9AD",
			ScoreRange: "40-69",
			Characteristics: []string{
				"Core ESG practices in place",
				"Uneven maturity across pillars",
				"Formalization and measurement still developing",
			},
		}
	default:
		return Certification{
			Level:      LevelBronze,
			Name:       "Bronze",
			Title:      "ESG Bronze Certification",
			Message:    "Your organization is at the start of its ESG journey with significant improvement opportunities.",
			Color:      "#CD7F32",
			ScoreRange: "0-39",
			Characteristics: []string{
				"Initial awareness of ESG topics",
				"Practices are informal or absent",
				"High-impact quick wins available",
			},
		}
	}
}
