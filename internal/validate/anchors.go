package validate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// Issue reasons
const (
	ReasonMissingID      = "missing id"
	ReasonDuplicateID    = "duplicate id"
	ReasonNoText         = "no segment text or excerpt"
	ReasonUnknownSource  = "unknown source type"
	ReasonBadConfidence  = "confidence outside [0,1]"
	ReasonInvertedOffset = "start index after end index"
)

// Result is the outcome of checking an anchor set
type Result struct {
	Usable []model.SourceAnchor // Anchors the linker may use, in input order
	Issues []model.AnchorIssue  // Every problem found, fatal or not
}

// Anchors sorts anchors into usable ones and issues. Anchors without an id,
// with a repeated id or with nothing to locate are dropped; other problems
// are reported but the anchor stays usable. A nil or empty slice is simply
// "no anchors".
func Anchors(anchors []model.SourceAnchor) Result {
	result := Result{
		Usable: make([]model.SourceAnchor, 0, len(anchors)),
		Issues: []model.AnchorIssue{},
	}
	seen := make(map[string]bool, len(anchors))

	for i, a := range anchors {
		issue := func(reason string) {
			result.Issues = append(result.Issues, model.AnchorIssue{AnchorID: a.ID, Index: i, Reason: reason})
		}

		id := strings.TrimSpace(a.ID)
		switch {
		case id == "":
			issue(ReasonMissingID)
			continue
		case seen[id]:
			issue(ReasonDuplicateID)
			continue
		case strings.TrimSpace(a.LocatableText()) == "":
			issue(ReasonNoText)
			continue
		}
		seen[id] = true

		if a.SourceType != "" && !a.SourceType.Valid() {
			issue(ReasonUnknownSource)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			issue(fmt.Sprintf("%s: %v", ReasonBadConfidence, a.Confidence))
		}
		if a.StartIndex > a.EndIndex {
			issue(ReasonInvertedOffset)
		}

		result.Usable = append(result.Usable, a)
	}

	return result
}
