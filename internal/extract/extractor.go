// Package extract turns letter text into typed clinical values and concept matches.
package extract

import (
	"fmt"
	"sort"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
)

// Extractor runs the value and concept extractors over the same text and
// merges their results into one value per span
type Extractor struct {
	values   *ValueExtractor
	concepts *ConceptExtractor
}

// NewExtractor creates an extractor over the given taxonomy (nil = built-in)
func NewExtractor(tax *taxonomy.Taxonomy) *Extractor {
	return &Extractor{
		values:   NewValueExtractor(),
		concepts: NewConceptExtractor(tax),
	}
}

// Values returns the measurement extractor
func (e *Extractor) Values() *ValueExtractor {
	return e.values
}

// Concepts returns the concept extractor
func (e *Extractor) Concepts() *ConceptExtractor {
	return e.concepts
}

// precedence orders candidates when spans overlap; lower wins
var precedence = map[model.ValueType]int{
	model.ValueMeasurement: 0,
	model.ValueDiagnosis:   1,
	model.ValueProcedure:   2,
	model.ValueMedication:  3,
	model.ValueFinding:     4,
	model.ValueRiskFactor:  5,
}

// ExtractClinicalValues returns the merged values found in text
func (e *Extractor) ExtractClinicalValues(text string) []model.ClinicalValue {
	values, _ := e.Extract(text)
	return values
}

// Extract returns the merged values together with the raw concept matches
func (e *Extractor) Extract(text string) ([]model.ClinicalValue, model.Concepts) {
	measured := e.values.ExtractMeasurements(text)
	concepts := e.concepts.ExtractClinicalConcepts(text)
	return Merge(measured, concepts), concepts
}

// Merge folds measurements and non-negated concepts into clinical values.
// Pattern values (measurements and doses) win over concepts, then diagnosis,
// procedure, medication, finding and risk factor in that order; a candidate
// overlapping an accepted value is dropped. IDs are assigned by position.
func Merge(measured []model.ClinicalValue, concepts model.Concepts) []model.ClinicalValue {
	type candidate struct {
		value model.ClinicalValue
		rank  int
	}

	var candidates []candidate
	for _, v := range measured {
		candidates = append(candidates, candidate{value: v, rank: -1})
	}
	for _, cat := range model.Categories {
		vt := cat.ValueType()
		for _, m := range concepts.ByCategory(cat) {
			if m.Negated {
				continue
			}
			candidates = append(candidates, candidate{
				value: model.ClinicalValue{
					Type:  vt,
					Name:  m.NormalizedTerm,
					Value: m.NormalizedTerm,
					Code:  m.Code,
					Start: m.Start,
					End:   m.End,
				},
				rank: precedence[vt],
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].value.Start < candidates[j].value.Start
	})

	values := []model.ClinicalValue{}
	var taken []span
	for _, c := range candidates {
		s := span{start: c.value.Start, end: c.value.End}
		if s.overlapsAny(taken) {
			continue
		}
		taken = append(taken, s)
		values = append(values, c.value)
	}

	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i], values[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return precedence[a.Type] < precedence[b.Type]
	})

	for i := range values {
		values[i].ID = fmt.Sprintf("cv-%03d", i+1)
	}
	return values
}
