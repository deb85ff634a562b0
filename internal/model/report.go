package model

import "time"

// Analysis is the complete result of analysing one letter
type Analysis struct {
	ID              string    `json:"id"`                  // Unique per analysis run
	LetterID        string    `json:"letter_id,omitempty"` // Caller-supplied letter identifier
	AnalyzedAt      time.Time `json:"analyzed_at"`
	TaxonomyVersion string    `json:"taxonomy_version"`
	ProximityWindow int       `json:"proximity_window"` // Linking window used, in bytes

	Values  []ClinicalValue `json:"values"`  // Extracted values, anchor links attached
	Grouped GroupedValues   `json:"grouped"` // Values partitioned by type

	Concepts       Concepts `json:"concepts"`
	ConceptSummary string   `json:"concept_summary,omitempty"`

	Verification      VerificationStats `json:"verification"`
	Unverified        []ClinicalValue   `json:"unverified"`         // No source anchor
	RequiresAttention []ClinicalValue   `json:"requires_attention"` // No anchor and not clinician-verified

	Risk       RiskProfile `json:"risk"`
	ICD10Codes []string    `json:"icd10_codes"`
	MBSItems   []string    `json:"mbs_items"`

	AnchorIssues []AnchorIssue `json:"anchor_issues,omitempty"` // Anchors that could not be used
	Signals      []Signal      `json:"signals"`

	Cached bool `json:"cached"` // Served from the analysis cache
}

// GroupedValues partitions values by type
type GroupedValues struct {
	Measurements []ClinicalValue `json:"measurements"`
	Diagnoses    []ClinicalValue `json:"diagnoses"`
	Medications  []ClinicalValue `json:"medications"`
	Procedures   []ClinicalValue `json:"procedures"`
	Findings     []ClinicalValue `json:"findings"`
	RiskFactors  []ClinicalValue `json:"risk_factors"`
}

// VerificationStats summarizes provenance coverage
type VerificationStats struct {
	TotalValues    int     `json:"total_values"`
	VerifiedValues int     `json:"verified_values"` // Values carrying a source anchor
	Rate           float64 `json:"rate"`            // Percentage, one decimal place
}

// RiskLevel is the ordinal bucket of a risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very high"
)

// RiskProfile aggregates detected diagnoses and risk factors
type RiskProfile struct {
	Score         float64            `json:"score"`
	Level         RiskLevel          `json:"level"`
	Factors       []string           `json:"factors"`       // Contributing terms in detection order
	Contributions []RiskContribution `json:"contributions"` // Per-term weights
}

// RiskContribution is one term's share of the risk score
type RiskContribution struct {
	Term     string   `json:"term"`
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
}

// AnchorIssue records why an anchor was not usable for linking
type AnchorIssue struct {
	AnchorID string `json:"anchor_id,omitempty"`
	Index    int    `json:"index"` // Position in the caller's anchor slice
	Reason   string `json:"reason"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Inputs and formula
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalVerificationCoverage   SignalType = "verification_coverage"   // Share of values with an anchor
	SignalAttentionBacklog       SignalType = "attention_backlog"       // Values needing manual review
	SignalProvenanceDistribution SignalType = "provenance_distribution" // Anchor source types behind links
	SignalRiskProfile            SignalType = "risk_profile"            // Aggregated risk
	SignalAnchorQuality          SignalType = "anchor_quality"          // Unusable anchors supplied
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
