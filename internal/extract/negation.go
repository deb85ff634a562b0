package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// negationLookBack is how far before a match, in bytes, a cue may appear
const negationLookBack = 40

// NegationDetector flags concepts that are denied or not attributed to the patient
type NegationDetector struct {
	cues        *regexp.Regexp
	prefix      *regexp.Regexp
	experiencer *regexp.Regexp
	terminators *regexp.Regexp
}

// NewNegationDetector creates a new negation detector
func NewNegationDetector() *NegationDetector {
	cues := []string{
		"no history of", "no evidence of", "negative for", "free of", "absence of", "ruled out",
		"denies", "denied", "without", "never", "not", "nil", "no",
	}
	// "and" only closes a clause when a new assertion follows it
	assertions := []string{"has", "have", "had", "is", "was", "with", "on", "now", "reports", "known"}
	return &NegationDetector{
		cues:        regexp.MustCompile(`(?i)\b(?:` + joinPhrases(cues) + `)\b`),
		prefix:      regexp.MustCompile(`(?i)\bnon-?\s*$`),
		experiencer: regexp.MustCompile(`(?i)\bfamily\s+history\s+of\b`),
		terminators: regexp.MustCompile(`(?i)[.!?;,\n]|\b(?:but|however|although|though|except|apart\s+from)\b|\band\s+(?:` + joinPhrases(assertions) + `)\b`),
	}
}

// IsNegated reports whether the match at start is preceded by a negation cue
// in the same clause, or is directly prefixed by "non" ("non-smoker").
// "non-ST" is a subtype, never a negation. Diagnoses and risk factors
// preceded by "family history of" belong to a relative and are treated the
// same way.
func (d *NegationDetector) IsNegated(text string, start int, cat model.Category) bool {
	scope := d.scope(text, start)
	if scope == "" {
		return false
	}
	if d.cues.MatchString(scope) {
		return true
	}
	if d.prefix.MatchString(scope) && !strings.HasPrefix(text[start:], "ST") {
		return true
	}
	switch cat {
	case model.CategoryDiagnosis, model.CategoryRiskFactor:
		return d.experiencer.MatchString(scope)
	}
	return false
}

// scope returns the look-back window clipped to the last clause boundary
func (d *NegationDetector) scope(text string, start int) string {
	from := start - negationLookBack
	if from < 0 {
		from = 0
	}
	window := text[from:start]
	if locs := d.terminators.FindAllStringIndex(window, -1); len(locs) > 0 {
		window = window[locs[len(locs)-1][1]:]
	}
	return window
}

// joinPhrases builds an alternation with flexible whitespace between words
func joinPhrases(phrases []string) string {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		parts[i] = phrasePattern(p)
	}
	return strings.Join(parts, "|")
}

// phrasePattern quotes each word of a phrase and joins them with \s+
func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}
