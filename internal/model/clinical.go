package model

import "fmt"

// ValueType classifies an extracted clinical value
type ValueType string

const (
	ValueMeasurement ValueType = "measurement"
	ValueDiagnosis   ValueType = "diagnosis"
	ValueMedication  ValueType = "medication"
	ValueProcedure   ValueType = "procedure"
	ValueFinding     ValueType = "finding"
	ValueRiskFactor  ValueType = "risk_factor"
)

// ValueTypes lists every value type in display order
var ValueTypes = []ValueType{
	ValueMeasurement,
	ValueDiagnosis,
	ValueMedication,
	ValueProcedure,
	ValueFinding,
	ValueRiskFactor,
}

// Valid reports whether t is one of the known value types
func (t ValueType) Valid() bool {
	switch t {
	case ValueMeasurement, ValueDiagnosis, ValueMedication, ValueProcedure, ValueFinding, ValueRiskFactor:
		return true
	}
	return false
}

// UnmarshalText rejects unknown value types so they never reach the engine
func (t *ValueType) UnmarshalText(b []byte) error {
	v := ValueType(b)
	if !v.Valid() {
		return fmt.Errorf("unknown value type %q", string(b))
	}
	*t = v
	return nil
}

// ClinicalValue is one discrete fact extracted from a letter
type ClinicalValue struct {
	ID             string    `json:"id"`                         // Unique within one extraction call
	Type           ValueType `json:"type"`                       // measurement, diagnosis, ...
	Name           string    `json:"name"`                       // Display label (e.g., "LVEF")
	Value          string    `json:"value"`                      // Canonical value (e.g., "45", "120/80")
	Unit           string    `json:"unit,omitempty"`             // %, mmHg, bpm, mg
	Code           string    `json:"code,omitempty"`             // ICD-10 or MBS code when known
	Start          int       `json:"start_index"`                // Byte offset into the letter text
	End            int       `json:"end_index"`                  // Exclusive end offset
	SourceAnchorID string    `json:"source_anchor_id,omitempty"` // Lookup key into the caller's anchors
	Verified       bool      `json:"verified"`                   // Clinician-asserted
}

// HasAnchor reports whether the value is linked to source material
func (v ClinicalValue) HasAnchor() bool {
	return v.SourceAnchorID != ""
}

// SourceType identifies the upstream pipeline that produced an anchor
type SourceType string

const (
	SourceTranscript SourceType = "transcript"
	SourceDocument   SourceType = "document"
	SourceUserInput  SourceType = "user_input"
)

// Valid reports whether s is a known source type
func (s SourceType) Valid() bool {
	switch s {
	case SourceTranscript, SourceDocument, SourceUserInput:
		return true
	}
	return false
}

// SourceAnchor is a span of original source material.
// Offsets refer to the original source, not to the letter.
type SourceAnchor struct {
	ID            string     `json:"id"`
	SegmentText   string     `json:"segment_text"`
	StartIndex    int        `json:"start_index"`
	EndIndex      int        `json:"end_index"`
	SourceType    SourceType `json:"source_type"`
	SourceID      string     `json:"source_id,omitempty"`
	SourceExcerpt string     `json:"source_excerpt,omitempty"`
	Confidence    float64    `json:"confidence"`
}

// LocatableText returns the text used to find the anchor in a letter
func (a SourceAnchor) LocatableText() string {
	if a.SegmentText != "" {
		return a.SegmentText
	}
	return a.SourceExcerpt
}

// Letter is the input to a single analysis
type Letter struct {
	ID      string         `json:"letter_id,omitempty"`
	Text    string         `json:"text"`
	Format  string         `json:"format,omitempty"` // text (default) or html
	Anchors []SourceAnchor `json:"anchors,omitempty"`
}

// ProvenanceTier ranks how directly an anchor reflects what was said or written
type ProvenanceTier int

const (
	TierUnknown   ProvenanceTier = 0 // Not yet classified
	TierPrimary   ProvenanceTier = 1 // Consultation transcript
	TierSecondary ProvenanceTier = 2 // Referral or uploaded document
	TierTertiary  ProvenanceTier = 3 // Manually entered by a user
)

func (t ProvenanceTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
