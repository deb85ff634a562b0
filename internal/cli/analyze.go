package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cliniprov/internal/worker"
)

var (
	outJSON     string
	outMD       string
	anchorsFile string
	letterFmt   string
	window      int
	timeout     time.Duration
	noCache     bool
	noFooter    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <letter-file>",
	Short: "Extract clinical values from one letter and link them to source anchors",
	Long: `Analyze reads a single specialist letter and:
- Extracts measurements, diagnoses, medications, procedures, findings and risk factors
- Links each value to the nearest source anchor within the proximity window
- Reports verification coverage and values that need clinician attention
- Derives ICD-10 codes, MBS items and a cardiovascular risk profile

The letter file is plain text (.txt), HTML (.html) or a JSON letter document
{"letter_id", "text", "format", "anchors"}.

Example:
  cliniprov analyze letter.txt --anchors anchors.json
  cliniprov analyze letter.json --json report.json --md report.md
  cliniprov analyze letter.html --window 120 --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&anchorsFile, "anchors", "", "JSON array of source anchors (overrides anchors in a JSON letter)")
	analyzeCmd.Flags().StringVar(&letterFmt, "format", "", "letter format: text or html (default: from file extension)")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout; default stdout when no output is given)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Engine flags
	analyzeCmd.Flags().IntVar(&window, "window", 0, "linking proximity window in bytes (default from config, 200)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the analysis cache")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("window") {
		cfg.Linking.ProximityWindow = window
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	letter, err := worker.ReadLetterFile(path)
	if err != nil {
		return err
	}
	if anchorsFile != "" {
		anchors, err := worker.ReadAnchorsFile(anchorsFile)
		if err != nil {
			return err
		}
		letter.Anchors = anchors
	}
	if letterFmt != "" {
		letter.Format = letterFmt
	}

	p, logger, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	logger.Debug().
		Str("letter", path).
		Int("anchors", len(letter.Anchors)).
		Dur("timeout", timeout).
		Msg("analyzing letter")

	analysis, err := p.Analyze(ctx, letter)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	jsonPath := outJSON
	if jsonPath == "" && outMD == "" {
		jsonPath = "-"
	}

	if err := p.RenderReport(analysis, jsonPath, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
