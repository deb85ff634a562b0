package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/cliniprov/internal/cache"
	"github.com/ppiankov/cliniprov/internal/coding"
	"github.com/ppiankov/cliniprov/internal/extract"
	"github.com/ppiankov/cliniprov/internal/extract/adapters"
	"github.com/ppiankov/cliniprov/internal/link"
	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/score"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
	"github.com/ppiankov/cliniprov/internal/validate"
	"github.com/ppiankov/cliniprov/internal/verify"
)

// Pipeline orchestrates the complete analysis of one letter
type Pipeline struct {
	registry  *adapters.Registry
	extractor *extract.Extractor
	linker    *link.Linker
	risk      *score.RiskCalculator
	scorer    *score.Scorer
	renderer  *Renderer
	cache     cache.Cache // nil when caching is disabled
	profile   string      // everything besides the letter that shapes a result
	logger    zerolog.Logger
	config    *model.Config
	now       func() time.Time
}

// NewPipeline creates a new pipeline. A nil tax builds the built-in taxonomy
// once here and hands it to every stage; c may be nil (no caching).
func NewPipeline(cfg *model.Config, tax *taxonomy.Taxonomy, c cache.Cache, logger zerolog.Logger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if tax == nil {
		tax = taxonomy.Default()
	}

	risk := score.NewRiskCalculator(tax, cfg.Risk)
	thresholds := risk.Thresholds()

	return &Pipeline{
		registry:  adapters.NewRegistry(),
		extractor: extract.NewExtractor(tax),
		linker:    link.NewLinker(cfg.Linking.ProximityWindow),
		risk:      risk,
		scorer:    score.NewScorer(),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		cache:     c,
		profile:   fmt.Sprintf("%s@%s;risk=%g/%g", tax.Version(), tax.Digest(), thresholds.High, thresholds.VeryHigh),
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Taxonomy returns the taxonomy the pipeline extracts against
func (p *Pipeline) Taxonomy() *taxonomy.Taxonomy {
	return p.extractor.Concepts().Taxonomy()
}

// Extractor returns the merged value extractor
func (p *Pipeline) Extractor() *extract.Extractor {
	return p.extractor
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Analyze extracts, links, verifies and scores one letter
func (p *Pipeline) Analyze(ctx context.Context, letter model.Letter) (*model.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze letter: %w", err)
	}

	// 1. Normalize letter body
	text, err := p.registry.Normalize(letter.Format, letter.Text)
	if err != nil {
		return nil, fmt.Errorf("normalize letter: %w", err)
	}

	// 2. Sanitize anchors
	anchors := validate.Anchors(letter.Anchors)

	// 3. Serve from cache when the same inputs were analysed before
	key := cache.AnalysisKey(text, letter.Anchors, p.profile, p.linker.Window())
	if cached, ok := p.lookup(key); ok {
		cached.ID = uuid.NewString()
		cached.LetterID = letter.ID
		cached.AnalyzedAt = p.now()
		cached.Cached = true
		p.audit(cached)
		return cached, nil
	}

	// 4. Extract and link
	values, concepts := p.extractor.Extract(text)
	values = p.linker.LinkAll(text, values, anchors.Usable)

	// 5. Verification views, risk and codes
	analysis := &model.Analysis{
		ID:                uuid.NewString(),
		LetterID:          letter.ID,
		AnalyzedAt:        p.now(),
		TaxonomyVersion:   p.Taxonomy().Version(),
		ProximityWindow:   p.linker.Window(),
		Values:            values,
		Grouped:           verify.GroupValuesByType(values),
		Concepts:          concepts,
		ConceptSummary:    extract.GenerateConceptSummary(concepts),
		Verification:      verify.CalculateVerificationRate(values),
		Unverified:        verify.GetUnverifiedValues(values),
		RequiresAttention: verify.RequiresAttention(values),
		Risk:              p.risk.CalculateRiskProfile(concepts),
		ICD10Codes:        coding.GetICD10Codes(concepts),
		MBSItems:          coding.GetMBSItems(concepts),
	}
	if len(anchors.Issues) > 0 {
		analysis.AnchorIssues = anchors.Issues
	}

	// 6. Signals (after everything they summarize)
	analysis.Signals = p.scorer.Signals(analysis, anchors.Usable)

	p.store(key, analysis)
	p.audit(analysis)

	return analysis, nil
}

// ConceptReport is the concept-only view of a text
type ConceptReport struct {
	Concepts   model.Concepts    `json:"concepts"`
	Summary    string            `json:"summary"`
	ICD10Codes []string          `json:"icd10_codes"`
	MBSItems   []string          `json:"mbs_items"`
	Risk       model.RiskProfile `json:"risk"`
}

// AnalyzeConcepts extracts concepts and derives codes and risk without linking
func (p *Pipeline) AnalyzeConcepts(text string) ConceptReport {
	concepts := p.extractor.Concepts().ExtractClinicalConcepts(text)
	return ConceptReport{
		Concepts:   concepts,
		Summary:    extract.GenerateConceptSummary(concepts),
		ICD10Codes: coding.GetICD10Codes(concepts),
		MBSItems:   coding.GetMBSItems(concepts),
		Risk:       p.risk.CalculateRiskProfile(concepts),
	}
}

// VerificationReport is the verification view of caller-supplied values
type VerificationReport struct {
	Verification      model.VerificationStats `json:"verification"`
	Grouped           model.GroupedValues     `json:"grouped"`
	Unverified        []model.ClinicalValue   `json:"unverified"`
	RequiresAttention []model.ClinicalValue   `json:"requires_attention"`
}

// Verify computes verification views over values, e.g. after clinician edits
func Verify(values []model.ClinicalValue) VerificationReport {
	return VerificationReport{
		Verification:      verify.CalculateVerificationRate(values),
		Grouped:           verify.GroupValuesByType(values),
		Unverified:        verify.GetUnverifiedValues(values),
		RequiresAttention: verify.RequiresAttention(values),
	}
}

func (p *Pipeline) lookup(key string) (*model.Analysis, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}

	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		p.logger.Warn().Err(err).Str("cache_key", key).Msg("discarding unreadable cached analysis")
		_ = p.cache.Delete(key)
		return nil, false
	}
	return &analysis, true
}

func (p *Pipeline) store(key string, analysis *model.Analysis) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		p.logger.Warn().Err(err).Msg("encode analysis for cache")
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn().Err(err).Str("cache_key", key).Msg("cache analysis")
	}
}

// audit writes one structured event per analysis
func (p *Pipeline) audit(a *model.Analysis) {
	p.logger.Info().
		Str("event", "verification").
		Str("analysis_id", a.ID).
		Str("letter_id", a.LetterID).
		Str("taxonomy_version", a.TaxonomyVersion).
		Int("total_values", a.Verification.TotalValues).
		Int("verified_values", a.Verification.VerifiedValues).
		Float64("verification_rate", a.Verification.Rate).
		Int("requires_attention", len(a.RequiresAttention)).
		Int("anchor_issues", len(a.AnchorIssues)).
		Str("risk_level", string(a.Risk.Level)).
		Bool("cached", a.Cached).
		Msg("letter analysed")
}

// RenderReport renders the analysis to the specified outputs
func (p *Pipeline) RenderReport(a *model.Analysis, jsonPath string, mdPath string, verbose bool) error {
	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(a, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != "-" {
			p.logger.Info().Str("path", jsonPath).Msg("wrote JSON report")
		}
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(a, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			p.logger.Info().Str("path", mdPath).Msg("wrote Markdown report")
		}
	}

	// Print summary
	p.renderer.RenderSummary(a)

	return nil
}
