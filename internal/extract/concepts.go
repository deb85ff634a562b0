package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
)

// trigger is one compiled surface form of a taxonomy rule
type trigger struct {
	phrase string
	re     *regexp.Regexp
	rule   taxonomy.Rule
}

// ConceptExtractor matches taxonomy triggers against letter text
type ConceptExtractor struct {
	taxonomy *taxonomy.Taxonomy
	triggers map[model.Category][]trigger
	negation *NegationDetector
}

// NewConceptExtractor compiles every trigger of the taxonomy. A nil taxonomy
// builds a private copy of the built-in one.
func NewConceptExtractor(tax *taxonomy.Taxonomy) *ConceptExtractor {
	if tax == nil {
		tax = taxonomy.Default()
	}

	e := &ConceptExtractor{
		taxonomy: tax,
		triggers: make(map[model.Category][]trigger, len(model.Categories)),
		negation: NewNegationDetector(),
	}

	for _, cat := range model.Categories {
		var compiled []trigger
		for _, rule := range tax.Rules(cat) {
			for _, phrase := range rule.Triggers {
				compiled = append(compiled, trigger{
					phrase: phrase,
					re:     regexp.MustCompile(`(?i)\b` + phrasePattern(phrase) + `\b`),
					rule:   rule,
				})
			}
		}
		// Longest first so "heart failure with reduced ejection fraction"
		// claims its span before "heart failure" is tried.
		sort.SliceStable(compiled, func(i, j int) bool {
			return len(compiled[i].phrase) > len(compiled[j].phrase)
		})
		e.triggers[cat] = compiled
	}

	return e
}

// Taxonomy returns the taxonomy the extractor was built from
func (e *ConceptExtractor) Taxonomy() *taxonomy.Taxonomy {
	return e.taxonomy
}

// ExtractClinicalConcepts returns every concept occurrence per category,
// ordered by offset. Text without matches yields empty categories.
func (e *ConceptExtractor) ExtractClinicalConcepts(text string) model.Concepts {
	concepts := model.NewConcepts()
	if strings.TrimSpace(text) == "" {
		return concepts
	}

	for _, cat := range model.Categories {
		concepts.Set(cat, e.extractCategory(text, cat))
	}
	return concepts
}

func (e *ConceptExtractor) extractCategory(text string, cat model.Category) []model.ConceptMatch {
	matches := []model.ConceptMatch{}
	var consumed []span

	for _, trig := range e.triggers[cat] {
		for _, loc := range trig.re.FindAllStringIndex(text, -1) {
			s := span{start: loc[0], end: loc[1]}
			if s.overlapsAny(consumed) {
				continue
			}
			consumed = append(consumed, s)
			matches = append(matches, model.ConceptMatch{
				Category:       cat,
				RawTerm:        text[s.start:s.end],
				NormalizedTerm: trig.rule.NormalizedTerm,
				Code:           trig.rule.Code,
				CodeSystem:     trig.rule.CodeSystem,
				Start:          s.start,
				End:            s.end,
				Negated:        e.negation.IsNegated(text, s.start, cat),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// GenerateConceptSummary renders one line per non-empty category listing its
// distinct normalized terms in detection order. Negated matches are left out.
func GenerateConceptSummary(concepts model.Concepts) string {
	var lines []string
	for _, cat := range model.Categories {
		terms := AssertedTerms(concepts.ByCategory(cat))
		if len(terms) == 0 {
			continue
		}
		lines = append(lines, cat.Label()+": "+strings.Join(terms, ", "))
	}
	return strings.Join(lines, "\n")
}

// AssertedTerms returns the distinct normalized terms of non-negated matches
func AssertedTerms(matches []model.ConceptMatch) []string {
	seen := make(map[string]bool)
	terms := []string{}
	for _, m := range matches {
		if m.Negated || seen[m.NormalizedTerm] {
			continue
		}
		seen[m.NormalizedTerm] = true
		terms = append(terms, m.NormalizedTerm)
	}
	return terms
}

// span is a half-open byte range in the letter text
type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

func (s span) overlapsAny(others []span) bool {
	for _, o := range others {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}
