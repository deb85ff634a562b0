package model

// Category is the taxonomy table a concept was matched against
type Category string

const (
	CategoryDiagnosis  Category = "diagnosis"
	CategoryProcedure  Category = "procedure"
	CategoryMedication Category = "medication"
	CategoryFinding    Category = "finding"
	CategoryRiskFactor Category = "risk_factor"
)

// Categories lists every category in extraction order
var Categories = []Category{
	CategoryDiagnosis,
	CategoryProcedure,
	CategoryMedication,
	CategoryFinding,
	CategoryRiskFactor,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryDiagnosis, CategoryProcedure, CategoryMedication, CategoryFinding, CategoryRiskFactor:
		return true
	}
	return false
}

// ValueType returns the value type a concept of this category folds into
func (c Category) ValueType() ValueType {
	switch c {
	case CategoryDiagnosis:
		return ValueDiagnosis
	case CategoryProcedure:
		return ValueProcedure
	case CategoryMedication:
		return ValueMedication
	case CategoryFinding:
		return ValueFinding
	default:
		return ValueRiskFactor
	}
}

// Label returns the section heading used in summaries
func (c Category) Label() string {
	switch c {
	case CategoryDiagnosis:
		return "Diagnoses"
	case CategoryProcedure:
		return "Procedures"
	case CategoryMedication:
		return "Medications"
	case CategoryFinding:
		return "Findings"
	case CategoryRiskFactor:
		return "Risk Factors"
	default:
		return string(c)
	}
}

// Code systems attached to concepts
const (
	CodeSystemICD10 = "ICD-10"
	CodeSystemMBS   = "MBS"
)

// ConceptMatch is a categorical concept found in the letter text
type ConceptMatch struct {
	Category       Category `json:"category"`
	RawTerm        string   `json:"raw_term"`        // Matched surface text
	NormalizedTerm string   `json:"normalized_term"` // Canonical term from the taxonomy
	Code           string   `json:"code,omitempty"`
	CodeSystem     string   `json:"code_system,omitempty"`
	Start          int      `json:"start_index"`
	End            int      `json:"end_index"`
	Negated        bool     `json:"negated,omitempty"` // Preceded by a negation cue
}

// Concepts holds concept matches per category
type Concepts struct {
	Diagnoses   []ConceptMatch `json:"diagnoses"`
	Procedures  []ConceptMatch `json:"procedures"`
	Medications []ConceptMatch `json:"medications"`
	Findings    []ConceptMatch `json:"findings"`
	RiskFactors []ConceptMatch `json:"risk_factors"`
}

// NewConcepts returns Concepts with every category initialized to an empty slice
func NewConcepts() Concepts {
	return Concepts{
		Diagnoses:   []ConceptMatch{},
		Procedures:  []ConceptMatch{},
		Medications: []ConceptMatch{},
		Findings:    []ConceptMatch{},
		RiskFactors: []ConceptMatch{},
	}
}

// ByCategory returns the matches for one category
func (c Concepts) ByCategory(cat Category) []ConceptMatch {
	switch cat {
	case CategoryDiagnosis:
		return c.Diagnoses
	case CategoryProcedure:
		return c.Procedures
	case CategoryMedication:
		return c.Medications
	case CategoryFinding:
		return c.Findings
	case CategoryRiskFactor:
		return c.RiskFactors
	}
	return nil
}

// Set replaces the matches for one category
func (c *Concepts) Set(cat Category, matches []ConceptMatch) {
	switch cat {
	case CategoryDiagnosis:
		c.Diagnoses = matches
	case CategoryProcedure:
		c.Procedures = matches
	case CategoryMedication:
		c.Medications = matches
	case CategoryFinding:
		c.Findings = matches
	case CategoryRiskFactor:
		c.RiskFactors = matches
	}
}

// Total returns the number of matches across all categories
func (c Concepts) Total() int {
	return len(c.Diagnoses) + len(c.Procedures) + len(c.Medications) + len(c.Findings) + len(c.RiskFactors)
}
