// Package verify derives verification views over linked clinical values.
//
// Two notions are kept apart: a value is "unverified" when it has no source
// anchor, and it "requires attention" when it has no anchor and the
// clinician has not marked it verified either.
package verify

import (
	"math"

	"github.com/ppiankov/cliniprov/internal/model"
)

// GroupValuesByType partitions values into one bucket per type. Values with
// an invalid type are dropped.
func GroupValuesByType(values []model.ClinicalValue) model.GroupedValues {
	g := model.GroupedValues{
		Measurements: []model.ClinicalValue{},
		Diagnoses:    []model.ClinicalValue{},
		Medications:  []model.ClinicalValue{},
		Procedures:   []model.ClinicalValue{},
		Findings:     []model.ClinicalValue{},
		RiskFactors:  []model.ClinicalValue{},
	}

	for _, v := range values {
		switch v.Type {
		case model.ValueMeasurement:
			g.Measurements = append(g.Measurements, v)
		case model.ValueDiagnosis:
			g.Diagnoses = append(g.Diagnoses, v)
		case model.ValueMedication:
			g.Medications = append(g.Medications, v)
		case model.ValueProcedure:
			g.Procedures = append(g.Procedures, v)
		case model.ValueFinding:
			g.Findings = append(g.Findings, v)
		case model.ValueRiskFactor:
			g.RiskFactors = append(g.RiskFactors, v)
		}
	}

	return g
}

// GetUnverifiedValues returns values without a source anchor
func GetUnverifiedValues(values []model.ClinicalValue) []model.ClinicalValue {
	return filter(values, func(v model.ClinicalValue) bool {
		return !v.HasAnchor()
	})
}

// RequiresAttention returns values with neither an anchor nor clinician sign-off
func RequiresAttention(values []model.ClinicalValue) []model.ClinicalValue {
	return filter(values, func(v model.ClinicalValue) bool {
		return !v.Verified && !v.HasAnchor()
	})
}

// CalculateVerificationRate counts anchored values. An empty set is fully
// verified: {0, 0, 100}.
func CalculateVerificationRate(values []model.ClinicalValue) model.VerificationStats {
	if len(values) == 0 {
		return model.VerificationStats{Rate: 100}
	}

	verified := 0
	for _, v := range values {
		if v.HasAnchor() {
			verified++
		}
	}

	return model.VerificationStats{
		TotalValues:    len(values),
		VerifiedValues: verified,
		Rate:           round1(float64(verified) / float64(len(values)) * 100),
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func filter(values []model.ClinicalValue, keep func(model.ClinicalValue) bool) []model.ClinicalValue {
	out := []model.ClinicalValue{}
	for _, v := range values {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
