// Package link attaches source anchors to extracted values by proximity.
package link

import (
	"regexp"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// DefaultProximityWindow is the maximum distance in bytes between a value
// and an anchor occurrence for a link to be made
const DefaultProximityWindow = 200

// Linker links values to the nearest source anchor within a window
type Linker struct {
	window int
}

// NewLinker creates a linker; a non-positive window selects the default
func NewLinker(window int) *Linker {
	if window <= 0 {
		window = DefaultProximityWindow
	}
	return &Linker{window: window}
}

// Window returns the proximity window in bytes
func (l *Linker) Window() int {
	return l.window
}

// located is an anchor together with its occurrences in the letter
type located struct {
	id    string
	spans [][]int
}

// LinkAnchor returns the id of the anchor nearest to value, or false when no
// anchor occurs within the window. Equal distances keep the earliest anchor
// in input order.
func (l *Linker) LinkAnchor(text string, value model.ClinicalValue, anchors []model.SourceAnchor) (string, bool) {
	return l.nearest(value.Start, locate(text, anchors))
}

// LinkAll returns a copy of values with SourceAnchorID set where a link was
// found. Existing links are replaced; inputs are never modified.
func (l *Linker) LinkAll(text string, values []model.ClinicalValue, anchors []model.SourceAnchor) []model.ClinicalValue {
	linked := make([]model.ClinicalValue, len(values))
	copy(linked, values)
	if len(values) == 0 {
		return linked
	}

	occurrences := locate(text, anchors)
	for i := range linked {
		id, ok := l.nearest(linked[i].Start, occurrences)
		if ok {
			linked[i].SourceAnchorID = id
		} else {
			linked[i].SourceAnchorID = ""
		}
	}
	return linked
}

func (l *Linker) nearest(pos int, anchors []located) (string, bool) {
	bestID := ""
	bestDist := -1
	for _, a := range anchors {
		for _, s := range a.spans {
			d := distance(pos, s[0], s[1])
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bestID = a.id
			}
		}
	}
	if bestDist < 0 || bestDist > l.window {
		return "", false
	}
	return bestID, true
}

// distance is zero when pos lies inside [start,end], otherwise the gap to the
// nearer edge
func distance(pos, start, end int) int {
	switch {
	case pos < start:
		return start - pos
	case pos > end:
		return pos - end
	default:
		return 0
	}
}

// locate finds every occurrence of each usable anchor in text. Matching is
// case-insensitive and whitespace runs match any whitespace.
func locate(text string, anchors []model.SourceAnchor) []located {
	out := make([]located, 0, len(anchors))
	for _, a := range anchors {
		if a.ID == "" {
			continue
		}
		pattern := textPattern(a.LocatableText())
		if pattern == "" {
			continue
		}
		spans := regexp.MustCompile(pattern).FindAllStringIndex(text, -1)
		if len(spans) == 0 {
			continue
		}
		out = append(out, located{id: a.ID, spans: spans})
	}
	return out
}

func textPattern(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `(?i)` + strings.Join(words, `\s+`)
}
