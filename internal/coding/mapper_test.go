package coding

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/cliniprov/internal/extract"
	"github.com/ppiankov/cliniprov/internal/model"
)

func TestGetICD10Codes_FromText(t *testing.T) {
	text := "Atrial fibrillation with coronary artery disease. AF remains. CAD stable. Atrial fibrillation again."
	concepts := extract.NewConceptExtractor(nil).ExtractClinicalConcepts(text)

	codes := GetICD10Codes(concepts)

	assert.Equal(t, []string{"I25.1", "I48"}, codes)
	assert.True(t, sort.StringsAreSorted(codes))
}

func TestGetICD10Codes_SkipsNegatedAndForeignCodes(t *testing.T) {
	concepts := model.NewConcepts()
	concepts.Diagnoses = []model.ConceptMatch{
		{NormalizedTerm: "Heart Failure", Code: "I50.9", CodeSystem: model.CodeSystemICD10},
		{NormalizedTerm: "Hypertension", Code: "I10", CodeSystem: model.CodeSystemICD10, Negated: true},
		{NormalizedTerm: "Odd", Code: "99999", CodeSystem: model.CodeSystemMBS},
		{NormalizedTerm: "Uncoded"},
	}

	assert.Equal(t, []string{"I50.9"}, GetICD10Codes(concepts))
}

func TestGetMBSItems(t *testing.T) {
	text := "Transthoracic echocardiogram, then coronary angiogram and PCI. Repeat echocardiogram."
	concepts := extract.NewConceptExtractor(nil).ExtractClinicalConcepts(text)

	assert.Equal(t, []string{"38215", "38306", "55118"}, GetMBSItems(concepts))
}

func TestCodes_EmptyInput(t *testing.T) {
	for _, concepts := range []model.Concepts{{}, model.NewConcepts()} {
		icd := GetICD10Codes(concepts)
		mbs := GetMBSItems(concepts)
		assert.NotNil(t, icd)
		assert.Empty(t, icd)
		assert.NotNil(t, mbs)
		assert.Empty(t, mbs)
	}
}
