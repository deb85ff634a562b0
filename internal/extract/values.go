package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// valuePattern is one quantitative pattern and how to turn a match into a value
type valuePattern struct {
	name    string
	re      *regexp.Regexp
	convert func(text string, m []int) (model.ClinicalValue, bool)
}

// ValueExtractor extracts quantitative measurements and medication doses
type ValueExtractor struct {
	patterns  []valuePattern
	stopWords map[string]bool
}

// Optional linking word between a label and its number ("LVEF of 45%", "BP: 120/80")
const labelJoin = `(?:\s*(?:of|was|is|=|:))?\s*`

// NewValueExtractor creates a new value extractor
func NewValueExtractor() *ValueExtractor {
	e := &ValueExtractor{
		stopWords: map[string]bool{
			"of": true, "and": true, "the": true, "take": true, "takes": true, "taking": true,
			"daily": true, "total": true, "dose": true, "dosage": true, "was": true, "were": true,
			"with": true, "from": true, "increased": true, "reduced": true, "decreased": true,
			"commenced": true, "started": true, "continue": true, "plus": true, "then": true,
			"approximately": true, "about": true, "weight": true, "loaded": true, "load": true,
			"bolus": true, "over": true, "per": true, "for": true, "additional": true,
		},
	}

	e.patterns = []valuePattern{
		{
			name: "ejection_fraction",
			re:   regexp.MustCompile(`(?i)\b(LVEF|RVEF)` + labelJoin + `(\d{1,2})\s*%`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				return measurement(strings.ToUpper(text[m[2]:m[3]]), text[m[4]:m[5]], "%", m), true
			},
		},
		{
			name: "blood_pressure",
			re:   regexp.MustCompile(`(?i)\b(?:BP|blood\s+pressure)` + labelJoin + `(\d{2,3})\s*/\s*(\d{2,3})(?:\s*mmHg\b|\b)`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				return measurement("Blood Pressure", text[m[2]:m[3]]+"/"+text[m[4]:m[5]], "mmHg", m), true
			},
		},
		{
			name: "heart_rate",
			re:   regexp.MustCompile(`(?i)\b(?:HR|heart\s+rate)` + labelJoin + `(\d{2,3})(?:\s*bpm\b|\b)`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				return measurement("Heart Rate", text[m[2]:m[3]], "bpm", m), true
			},
		},
		{
			name: "stenosis",
			re:   regexp.MustCompile(`(?i)\b(\d{2,3})\s*%\s+stenosis\b`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				return measurement("Stenosis", text[m[2]:m[3]], "%", m), true
			},
		},
		{
			name: "valve_gradient",
			re:   regexp.MustCompile(`(?i)\b(mean|peak)\s+gradient\s+(?:of\s+)?(\d+(?:\.\d+)?)\s*mmHg\b`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				name := "Mean Gradient"
				if strings.EqualFold(text[m[2]:m[3]], "peak") {
					name = "Peak Gradient"
				}
				return measurement(name, text[m[4]:m[5]], "mmHg", m), true
			},
		},
		{
			name: "medication_dose",
			re:   regexp.MustCompile(`(?i)\b([a-z][a-z-]{2,})\s+(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|units)\b`),
			convert: func(text string, m []int) (model.ClinicalValue, bool) {
				drug := text[m[2]:m[3]]
				if e.stopWords[strings.ToLower(drug)] {
					return model.ClinicalValue{}, false
				}
				return model.ClinicalValue{
					Type:  model.ValueMedication,
					Name:  titleCase(drug),
					Value: text[m[4]:m[5]],
					Unit:  strings.ToLower(text[m[6]:m[7]]),
					Start: m[0],
					End:   m[1],
				}, true
			},
		},
	}

	return e
}

// ExtractMeasurements scans text with every pattern. Matches are
// non-overlapping per pattern; each yields a separate value.
func (e *ValueExtractor) ExtractMeasurements(text string) []model.ClinicalValue {
	values := []model.ClinicalValue{}
	for _, p := range e.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if v, ok := p.convert(text, m); ok {
				values = append(values, v)
			}
		}
	}

	sort.SliceStable(values, func(i, j int) bool {
		if values[i].Start != values[j].Start {
			return values[i].Start < values[j].Start
		}
		return values[i].End < values[j].End
	})

	return values
}

func measurement(name, value, unit string, m []int) model.ClinicalValue {
	return model.ClinicalValue{
		Type:  model.ValueMeasurement,
		Name:  name,
		Value: value,
		Unit:  unit,
		Start: m[0],
		End:   m[1],
	}
}

// titleCase upper-cases the first letter and lower-cases the rest
func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
