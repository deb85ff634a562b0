package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes analyses as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	summaryOut    io.Writer
}

// NewRenderer creates a new renderer; summaries go to stderr
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		summaryOut:    os.Stderr,
	}
}

// SetSummaryOutput redirects RenderSummary
func (r *Renderer) SetSummaryOutput(w io.Writer) {
	r.summaryOut = w
}

// RenderJSON writes the analysis as indented JSON. "-" writes to stdout.
func (r *Renderer) RenderJSON(a *model.Analysis, path string) error {
	if path == "-" {
		return r.WriteJSON(os.Stdout, a)
	}
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, a) })
}

// WriteJSON encodes the analysis with two-space indentation
func (r *Renderer) WriteJSON(w io.Writer, a *model.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return nil
}

// RenderMarkdown writes the verification report as Markdown
func (r *Renderer) RenderMarkdown(a *model.Analysis, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, a) })
}

// WriteMarkdown renders the verification report a clinician reviews
func (r *Renderer) WriteMarkdown(w io.Writer, a *model.Analysis) error {
	var b strings.Builder

	title := a.LetterID
	if title == "" {
		title = a.ID
	}
	fmt.Fprintf(&b, "# Verification Report: %s\n\n", title)
	fmt.Fprintf(&b, "- **Analysis:** `%s`\n", a.ID)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", a.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Taxonomy:** %s (linking window %d bytes)\n", a.TaxonomyVersion, a.ProximityWindow)
	if a.Cached {
		b.WriteString("- **Cached:** yes\n")
	}
	b.WriteString("\n")

	// Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Values extracted | %d |\n", a.Verification.TotalValues)
	fmt.Fprintf(&b, "| Linked to source | %d |\n", a.Verification.VerifiedValues)
	fmt.Fprintf(&b, "| Verification rate | %.1f%% |\n", a.Verification.Rate)
	fmt.Fprintf(&b, "| Requires attention | %d |\n", len(a.RequiresAttention))
	fmt.Fprintf(&b, "| Risk | %s (%.1f) |\n\n", a.Risk.Level, a.Risk.Score)

	// Values
	b.WriteString("## Clinical Values\n\n")
	if len(a.Values) == 0 {
		b.WriteString("_No clinical values found._\n\n")
	} else {
		b.WriteString("| ID | Type | Name | Value | Code | Source Anchor |\n|---|---|---|---|---|---|\n")
		for _, v := range a.Values {
			anchor := "⚠ unlinked"
			if v.HasAnchor() {
				anchor = "`" + v.SourceAnchorID + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				v.ID, v.Type, escapeCell(v.Name), escapeCell(FormatValue(v)), v.Code, anchor)
		}
		b.WriteString("\n")
	}

	// Attention
	if len(a.RequiresAttention) > 0 {
		b.WriteString("## Requires Attention\n\n")
		b.WriteString("These values have no source anchor and no clinician sign-off:\n\n")
		for _, v := range a.RequiresAttention {
			fmt.Fprintf(&b, "- `%s` %s: **%s** %s\n", v.ID, v.Type, v.Name, FormatValue(v))
		}
		b.WriteString("\n")
	}

	// Risk
	b.WriteString("## Risk Profile\n\n")
	fmt.Fprintf(&b, "**Level:** %s (score %.1f)\n\n", a.Risk.Level, a.Risk.Score)
	if len(a.Risk.Contributions) > 0 {
		b.WriteString("| Factor | Category | Weight |\n|---|---|---|\n")
		for _, c := range a.Risk.Contributions {
			fmt.Fprintf(&b, "| %s | %s | %.1f |\n", c.Term, c.Category, c.Weight)
		}
		b.WriteString("\n")
	}

	// Codes
	b.WriteString("## Codes\n\n")
	fmt.Fprintf(&b, "- **ICD-10:** %s\n", joinOrNone(a.ICD10Codes))
	fmt.Fprintf(&b, "- **MBS:** %s\n\n", joinOrNone(a.MBSItems))

	if a.ConceptSummary != "" {
		b.WriteString("## Concept Summary\n\n```\n")
		b.WriteString(a.ConceptSummary)
		b.WriteString("\n```\n\n")
	}

	// Signals
	if len(a.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range a.Signals {
			fmt.Fprintf(&b, "- **[%s] %s**: %s\n", s.Severity, s.Type, s.Description)
		}
		b.WriteString("\n")
	}

	if len(a.AnchorIssues) > 0 {
		b.WriteString("## Anchor Issues\n\n")
		for _, issue := range a.AnchorIssues {
			id := issue.AnchorID
			if id == "" {
				id = "(no id)"
			}
			fmt.Fprintf(&b, "- #%d %s: %s\n", issue.Index, id, issue.Reason)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Generated by cliniprov. Values are extracted by rule and must be reviewed by a clinician before the letter is finalized._\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short overview for the terminal
func (r *Renderer) RenderSummary(a *model.Analysis) {
	w := r.summaryOut
	fmt.Fprintln(w)
	fmt.Fprintln(w, banner)
	if a.LetterID != "" {
		fmt.Fprintf(w, "  Letter: %s\n", a.LetterID)
	} else {
		fmt.Fprintf(w, "  Analysis: %s\n", a.ID)
	}
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Values:             %d\n", a.Verification.TotalValues)
	fmt.Fprintf(w, "  Linked to source:   %d (%.1f%%)\n", a.Verification.VerifiedValues, a.Verification.Rate)
	fmt.Fprintf(w, "  Requires attention: %d\n", len(a.RequiresAttention))
	fmt.Fprintf(w, "  Risk:               %s (%.1f)\n", a.Risk.Level, a.Risk.Score)
	fmt.Fprintf(w, "  ICD-10:             %s\n", joinOrNone(a.ICD10Codes))
	fmt.Fprintf(w, "  MBS:                %s\n", joinOrNone(a.MBSItems))
	fmt.Fprintln(w)

	for _, s := range a.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
	fmt.Fprintln(w)
}

// FormatValue joins a value and its unit for display
func FormatValue(v model.ClinicalValue) string {
	switch {
	case v.Unit == "":
		return v.Value
	case v.Value == "":
		return v.Unit
	case v.Unit == "%":
		return v.Value + v.Unit
	default:
		return v.Value + " " + v.Unit
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return write(f)
}
