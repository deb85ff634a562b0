// Package score computes the risk profile and the diagnostic signals of an analysis.
package score

import (
	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
)

// RiskCalculator aggregates diagnoses and risk factors into a weighted score
type RiskCalculator struct {
	taxonomy   *taxonomy.Taxonomy
	thresholds model.RiskConfig
}

// NewRiskCalculator creates a risk calculator. A nil taxonomy builds a private
// copy of the built-in one; unusable thresholds fall back to the defaults.
func NewRiskCalculator(tax *taxonomy.Taxonomy, thresholds model.RiskConfig) *RiskCalculator {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if thresholds.High <= 0 || thresholds.VeryHigh <= thresholds.High {
		thresholds = model.DefaultConfig().Risk
	}
	return &RiskCalculator{
		taxonomy:   tax,
		thresholds: thresholds,
	}
}

// Thresholds returns the level thresholds in use
func (c *RiskCalculator) Thresholds() model.RiskConfig {
	return c.thresholds
}

// CalculateRiskProfile sums the taxonomy weight of every distinct, non-negated
// diagnosis and risk factor. Diagnoses are counted before risk factors so a
// term present in both tables contributes once.
func (c *RiskCalculator) CalculateRiskProfile(concepts model.Concepts) model.RiskProfile {
	profile := model.RiskProfile{
		Factors:       []string{},
		Contributions: []model.RiskContribution{},
	}

	seen := make(map[string]bool)
	for _, cat := range []model.Category{model.CategoryDiagnosis, model.CategoryRiskFactor} {
		for _, m := range concepts.ByCategory(cat) {
			if m.Negated || seen[m.NormalizedTerm] {
				continue
			}
			weight := c.taxonomy.RiskWeight(cat, m.NormalizedTerm)
			if weight <= 0 {
				continue
			}
			seen[m.NormalizedTerm] = true
			profile.Score += weight
			profile.Factors = append(profile.Factors, m.NormalizedTerm)
			profile.Contributions = append(profile.Contributions, model.RiskContribution{
				Term:     m.NormalizedTerm,
				Category: cat,
				Weight:   weight,
			})
		}
	}

	profile.Level = c.Level(profile.Score)
	return profile
}

// Level maps a score to its ordinal bucket; only zero is low
func (c *RiskCalculator) Level(score float64) model.RiskLevel {
	switch {
	case score <= 0:
		return model.RiskLow
	case score < c.thresholds.High:
		return model.RiskModerate
	case score < c.thresholds.VeryHigh:
		return model.RiskHigh
	default:
		return model.RiskVeryHigh
	}
}
