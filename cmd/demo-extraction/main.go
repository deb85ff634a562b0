// Demo program that runs the full pipeline over a sample cardiology letter
// and prints each extracted value next to the anchor it was linked to.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/pipeline"
)

const sampleLetter = `Dear Dr Chen,

Thank you for referring Mr Smith, a 67 year old man with hypertension and
type 2 diabetes. He reports exertional chest pain but denies syncope.

Echocardiogram shows an LVEF of 45% with mild mitral regurgitation.
BP 142/88 mmHg, HR 78 bpm. Total cholesterol 5.8 mmol/L.

Impression: stable angina. No evidence of atrial fibrillation.
Plan: coronary angiogram. Continue aspirin 100 mg daily and atorvastatin 40 mg.`

func main() {
	fmt.Println("=== Clinical Value Extraction Demo ===")
	fmt.Println()

	letter := model.Letter{
		ID:   "demo-letter",
		Text: sampleLetter,
		Anchors: []model.SourceAnchor{
			{ID: "echo-report", SegmentText: "LVEF of 45%", SourceType: model.SourceDocument, Confidence: 0.95},
			{ID: "consult-0312", SegmentText: "BP 142/88 mmHg", SourceType: model.SourceTranscript, Confidence: 0.9},
			{ID: "consult-0340", SegmentText: "exertional chest pain", SourceType: model.SourceTranscript, Confidence: 0.6},
			{ID: "gp-referral", SegmentText: "hypertension", SourceType: model.SourceUserInput},
		},
	}

	p := pipeline.NewPipeline(model.DefaultConfig(), nil, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := p.Analyze(ctx, letter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-8s %-12s %-28s %-14s %s\n", "ID", "TYPE", "NAME", "VALUE", "ANCHOR")
	fmt.Println(strings.Repeat("-", 80))
	for _, v := range a.Values {
		anchor := "⚠ unlinked"
		if v.HasAnchor() {
			anchor = v.SourceAnchorID
		}
		fmt.Printf("%-8s %-12s %-28s %-14s %s\n", v.ID, v.Type, v.Name, pipeline.FormatValue(v), anchor)
	}

	fmt.Println()
	fmt.Printf("Verification: %d/%d linked (%.1f%%)\n",
		a.Verification.VerifiedValues, a.Verification.TotalValues, a.Verification.Rate)
	fmt.Printf("Risk:         %s (score %.1f)\n", a.Risk.Level, a.Risk.Score)
	fmt.Printf("ICD-10:       %s\n", strings.Join(a.ICD10Codes, ", "))
	fmt.Printf("MBS:          %s\n", strings.Join(a.MBSItems, ", "))

	var negated []string
	for _, d := range a.Concepts.Diagnoses {
		if d.Negated {
			negated = append(negated, d.NormalizedTerm)
		}
	}
	if len(negated) > 0 {
		fmt.Printf("Negated:      %s (not coded)\n", strings.Join(negated, ", "))
	}

	fmt.Println()
	fmt.Println("=== Demo Complete ===")
	fmt.Println("Every value above is a suggestion. A clinician confirms each one before the letter is sent.")
}
