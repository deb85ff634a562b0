// Package validate checks caller-supplied source anchors before linking.
package validate

import (
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// lowConfidence demotes an anchor by one tier
const lowConfidence = 0.5

// ProvenanceClassifier classifies anchors into provenance tiers
type ProvenanceClassifier struct {
	sourceMap map[model.SourceType]model.ProvenanceTier
}

// NewProvenanceClassifier creates a new provenance classifier
func NewProvenanceClassifier() *ProvenanceClassifier {
	return &ProvenanceClassifier{
		sourceMap: map[model.SourceType]model.ProvenanceTier{
			model.SourceTranscript: model.TierPrimary,
			model.SourceDocument:   model.TierSecondary,
			model.SourceUserInput:  model.TierTertiary,
		},
	}
}

// Classify returns the tier of an anchor. Transcripts rank above documents,
// documents above user input; a low-confidence anchor drops one tier.
func (c *ProvenanceClassifier) Classify(anchor model.SourceAnchor) model.ProvenanceTier {
	tier, ok := c.sourceMap[anchor.SourceType]
	if !ok {
		tier = parseSourceType(string(anchor.SourceType))
	}
	if anchor.Confidence > 0 && anchor.Confidence < lowConfidence && tier < model.TierTertiary {
		tier++
	}
	return tier
}

// parseSourceType accepts the loose spellings upstream systems emit
func parseSourceType(s string) model.ProvenanceTier {
	switch strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)) {
	case "transcript", "transcription", "audio":
		return model.TierPrimary
	case "document", "referral", "upload":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
