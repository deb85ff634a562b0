// Package coding projects concept matches into billing and diagnosis code lists.
package coding

import (
	"sort"

	"github.com/ppiankov/cliniprov/internal/model"
)

// GetICD10Codes returns the distinct ICD-10 codes of asserted diagnoses, sorted
func GetICD10Codes(concepts model.Concepts) []string {
	return collect(concepts.Diagnoses, model.CodeSystemICD10)
}

// GetMBSItems returns the distinct MBS item numbers of asserted procedures, sorted
func GetMBSItems(concepts model.Concepts) []string {
	return collect(concepts.Procedures, model.CodeSystemMBS)
}

func collect(matches []model.ConceptMatch, system string) []string {
	seen := make(map[string]bool)
	codes := []string{}
	for _, m := range matches {
		if m.Negated || m.Code == "" || m.CodeSystem != system || seen[m.Code] {
			continue
		}
		seen[m.Code] = true
		codes = append(codes, m.Code)
	}
	sort.Strings(codes)
	return codes
}
