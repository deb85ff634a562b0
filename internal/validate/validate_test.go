package validate

import (
	"strings"
	"testing"

	"github.com/ppiankov/cliniprov/internal/model"
)

func TestProvenanceClassifier_SourceTypes(t *testing.T) {
	classifier := NewProvenanceClassifier()

	tests := []struct {
		anchor   model.SourceAnchor
		expected model.ProvenanceTier
		desc     string
	}{
		{model.SourceAnchor{SourceType: model.SourceTranscript, Confidence: 0.9}, model.TierPrimary, "Transcript is primary"},
		{model.SourceAnchor{SourceType: model.SourceDocument, Confidence: 0.9}, model.TierSecondary, "Document is secondary"},
		{model.SourceAnchor{SourceType: model.SourceUserInput, Confidence: 1}, model.TierTertiary, "User input is tertiary"},
		{model.SourceAnchor{SourceType: "userInput"}, model.TierTertiary, "Camel-case user input"},
		{model.SourceAnchor{SourceType: "Transcription"}, model.TierPrimary, "Loose transcript spelling"},
		{model.SourceAnchor{SourceType: "fax"}, model.TierTertiary, "Unknown source defaults to tertiary"},
		{model.SourceAnchor{SourceType: model.SourceTranscript, Confidence: 0.3}, model.TierSecondary, "Low confidence drops a tier"},
		{model.SourceAnchor{SourceType: model.SourceUserInput, Confidence: 0.1}, model.TierTertiary, "Tertiary cannot drop further"},
		{model.SourceAnchor{SourceType: model.SourceDocument}, model.TierSecondary, "Zero confidence means unset"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := classifier.Classify(tt.anchor)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestProvenanceTier_String(t *testing.T) {
	if model.TierPrimary.String() != "primary" {
		t.Errorf("Expected 'primary', got '%s'", model.TierPrimary.String())
	}
	if model.TierUnknown.String() != "unknown" {
		t.Errorf("Expected 'unknown', got '%s'", model.TierUnknown.String())
	}
}

func TestAnchors_EmptyInput(t *testing.T) {
	for _, anchors := range [][]model.SourceAnchor{nil, {}} {
		result := Anchors(anchors)
		if len(result.Usable) != 0 || len(result.Issues) != 0 {
			t.Errorf("Expected no anchors and no issues, got %d usable, %d issues", len(result.Usable), len(result.Issues))
		}
		if result.Usable == nil || result.Issues == nil {
			t.Error("Expected non-nil slices")
		}
	}
}

func TestAnchors_DropsUnusable(t *testing.T) {
	anchors := []model.SourceAnchor{
		{ID: "a1", SegmentText: "LVEF of 45%", SourceType: model.SourceTranscript, Confidence: 0.9},
		{ID: "", SegmentText: "no id"},
		{ID: "a1", SegmentText: "duplicate"},
		{ID: "a2", SegmentText: "  ", SourceExcerpt: ""},
		{ID: "a3", SourceExcerpt: "aspirin 100 mg", SourceType: model.SourceDocument},
	}

	result := Anchors(anchors)

	if len(result.Usable) != 2 {
		t.Fatalf("Expected 2 usable anchors, got %d", len(result.Usable))
	}
	if result.Usable[0].ID != "a1" || result.Usable[1].ID != "a3" {
		t.Errorf("Expected usable anchors a1, a3 in order, got %s, %s", result.Usable[0].ID, result.Usable[1].ID)
	}

	expected := []struct {
		index  int
		reason string
	}{
		{1, ReasonMissingID},
		{2, ReasonDuplicateID},
		{3, ReasonNoText},
	}
	if len(result.Issues) != len(expected) {
		t.Fatalf("Expected %d issues, got %d: %+v", len(expected), len(result.Issues), result.Issues)
	}
	for i, exp := range expected {
		if result.Issues[i].Index != exp.index || result.Issues[i].Reason != exp.reason {
			t.Errorf("Issue %d: expected {%d %s}, got {%d %s}", i, exp.index, exp.reason, result.Issues[i].Index, result.Issues[i].Reason)
		}
	}
}

func TestAnchors_KeepsAnchorsWithSoftIssues(t *testing.T) {
	anchors := []model.SourceAnchor{
		{ID: "a1", SegmentText: "BP 120/80", SourceType: "fax", Confidence: 1.5, StartIndex: 20, EndIndex: 10},
	}

	result := Anchors(anchors)

	if len(result.Usable) != 1 {
		t.Fatalf("Expected anchor to stay usable, got %d usable", len(result.Usable))
	}
	if len(result.Issues) != 3 {
		t.Fatalf("Expected 3 issues, got %d: %+v", len(result.Issues), result.Issues)
	}
	if result.Issues[0].Reason != ReasonUnknownSource {
		t.Errorf("Expected '%s', got '%s'", ReasonUnknownSource, result.Issues[0].Reason)
	}
	if !strings.HasPrefix(result.Issues[1].Reason, ReasonBadConfidence) {
		t.Errorf("Expected confidence issue, got '%s'", result.Issues[1].Reason)
	}
	if result.Issues[2].Reason != ReasonInvertedOffset {
		t.Errorf("Expected '%s', got '%s'", ReasonInvertedOffset, result.Issues[2].Reason)
	}
}

func TestAnchors_DoesNotMutateInput(t *testing.T) {
	anchors := []model.SourceAnchor{{ID: " a1 ", SegmentText: "text"}}
	result := Anchors(anchors)

	if anchors[0].ID != " a1 " {
		t.Errorf("Expected input untouched, got ID %q", anchors[0].ID)
	}
	if len(result.Usable) != 1 {
		t.Errorf("Expected 1 usable anchor, got %d", len(result.Usable))
	}
}
