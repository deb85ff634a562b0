package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/validate"
)

// Scorer generates diagnostic signals with transparent scoring data
type Scorer struct {
	classifier *validate.ProvenanceClassifier
}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{
		classifier: validate.NewProvenanceClassifier(),
	}
}

// Signals derives the diagnostic signals of a completed analysis. anchors are
// the usable anchors the values were linked against.
func (s *Scorer) Signals(a *model.Analysis, anchors []model.SourceAnchor) []model.Signal {
	signals := []model.Signal{
		s.verificationCoverage(a.Verification),
		s.attentionBacklog(a.RequiresAttention, len(a.Values)),
		s.provenanceDistribution(a.Values, anchors),
		s.riskProfile(a.Risk),
	}

	if len(a.AnchorIssues) > 0 {
		signals = append(signals, s.anchorQuality(a.AnchorIssues))
	}

	return signals
}

// verificationCoverage reports the share of values backed by an anchor
func (s *Scorer) verificationCoverage(stats model.VerificationStats) model.Signal {
	severity := model.SeverityInfo
	if stats.Rate < 50 {
		severity = model.SeverityCritical
	} else if stats.Rate < 80 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalVerificationCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d values linked to source material (%.1f%%)", stats.VerifiedValues, stats.TotalValues, stats.Rate),
		Data: map[string]interface{}{
			"total_values":    stats.TotalValues,
			"verified_values": stats.VerifiedValues,
			"rate":            stats.Rate,
			"formula":         "round(verified_values / total_values * 100, 1); 100 when total_values = 0",
		},
	}
}

// attentionBacklog reports values with neither an anchor nor clinician sign-off.
// Any unanchored medication makes it critical.
func (s *Scorer) attentionBacklog(attention []model.ClinicalValue, total int) model.Signal {
	byType := make(map[string]int)
	for _, v := range attention {
		byType[string(v.Type)]++
	}

	severity := model.SeverityInfo
	description := "No values require manual verification"
	if len(attention) > 0 {
		severity = model.SeverityWarning
		if byType[string(model.ValueMedication)] > 0 {
			severity = model.SeverityCritical
		}
		description = fmt.Sprintf("%d of %d values require manual verification", len(attention), total)
	}

	ids := make([]string, 0, len(attention))
	for _, v := range attention {
		ids = append(ids, v.ID)
	}

	return model.Signal{
		Type:        model.SignalAttentionBacklog,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"count":     len(attention),
			"total":     total,
			"by_type":   byType,
			"value_ids": ids,
			"formula":   "count(not verified and no source_anchor_id)",
		},
	}
}

// provenanceDistribution reports which kinds of source back the linked values
func (s *Scorer) provenanceDistribution(values []model.ClinicalValue, anchors []model.SourceAnchor) model.Signal {
	byID := make(map[string]model.SourceAnchor, len(anchors))
	for _, a := range anchors {
		if _, dup := byID[a.ID]; !dup {
			byID[a.ID] = a
		}
	}

	primaryCount := 0
	secondaryCount := 0
	tertiaryCount := 0
	for _, v := range values {
		if !v.HasAnchor() {
			continue
		}
		anchor, ok := byID[v.SourceAnchorID]
		if !ok {
			continue
		}
		switch s.classifier.Classify(anchor) {
		case model.TierPrimary:
			primaryCount++
		case model.TierSecondary:
			secondaryCount++
		default:
			tertiaryCount++
		}
	}

	linked := primaryCount + secondaryCount + tertiaryCount
	if linked == 0 {
		severity := model.SeverityInfo
		if len(values) > 0 {
			severity = model.SeverityWarning
		}
		return model.Signal{
			Type:        model.SignalProvenanceDistribution,
			Severity:    severity,
			Description: "No values linked to source material",
			Data:        map[string]interface{}{"linked": 0},
		}
	}

	weightedSum := float64(primaryCount*3 + secondaryCount*2 + tertiaryCount*1)
	score := int(weightedSum / float64(linked*3) * 100)

	severity := model.SeverityInfo
	if primaryCount == 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalProvenanceDistribution,
		Severity:    severity,
		Description: fmt.Sprintf("Provenance: %d transcript-grade, %d document-grade, %d user-entered", primaryCount, secondaryCount, tertiaryCount),
		Data: map[string]interface{}{
			"primary":   primaryCount,
			"secondary": secondaryCount,
			"tertiary":  tertiaryCount,
			"linked":    linked,
			"score":     score,
			"formula":   "(primary*3 + secondary*2 + tertiary*1) / (linked*3) * 100",
		},
	}
}

// riskProfile reports the aggregated risk
func (s *Scorer) riskProfile(risk model.RiskProfile) model.Signal {
	severity := model.SeverityInfo
	switch risk.Level {
	case model.RiskHigh:
		severity = model.SeverityWarning
	case model.RiskVeryHigh:
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalRiskProfile,
		Severity:    severity,
		Description: fmt.Sprintf("Risk %s (score %.1f)", risk.Level, risk.Score),
		Data: map[string]interface{}{
			"score":   risk.Score,
			"level":   string(risk.Level),
			"factors": risk.Factors,
			"formula": "sum(weight of distinct non-negated diagnoses and risk factors)",
		},
	}
}

// anchorQuality reports anchors that were dropped or look suspect
func (s *Scorer) anchorQuality(issues []model.AnchorIssue) model.Signal {
	reasons := make(map[string]int)
	for _, issue := range issues {
		reasons[issue.Reason]++
	}

	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return model.Signal{
		Type:        model.SignalAnchorQuality,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d anchor issue(s): %v", len(issues), keys),
		Data: map[string]interface{}{
			"issues":  len(issues),
			"reasons": reasons,
		},
	}
}
