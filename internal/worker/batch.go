package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/cliniprov/internal/model"
)

// Analyzer defines the interface for analysing a letter
type Analyzer interface {
	Analyze(ctx context.Context, letter model.Letter) (*model.Analysis, error)
}

// LetterFile is a letter read from disk. Err is set when the file could not
// be read or decoded.
type LetterFile struct {
	Path   string
	Letter model.Letter
	Err    error
}

// AnalyzeJob represents a single letter analysis
type AnalyzeJob struct {
	File     LetterFile
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if j.File.Err != nil {
		return &AnalyzeResult{Source: j.File.Path, Error: j.File.Err}
	}

	analysis, err := j.Analyzer.Analyze(ctx, j.File.Letter)
	if err != nil {
		return &AnalyzeResult{Source: j.File.Path, Error: err}
	}
	return &AnalyzeResult{Source: j.File.Path, Analysis: analysis}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Source   string
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyses many letters concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessLetters analyses letters concurrently; results keep input order
func (b *BatchProcessor) ProcessLetters(ctx context.Context, files []LetterFile) []*AnalyzeResult {
	if len(files) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, f := range files {
		if !pool.Submit(&AnalyzeJob{File: f, Analyzer: b.analyzer}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*AnalyzeResult, len(results))
	for i, result := range results {
		out[i] = result.(*AnalyzeResult)
	}
	return out
}

// ProcessDir reads every letter in dir and analyses them concurrently
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*AnalyzeResult, error) {
	files, err := ReadLettersFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read letters: %w", err)
	}

	return b.ProcessLetters(ctx, files), nil
}

// letterExtensions maps accepted file extensions to a letter format.
// JSON files carry their own format.
var letterExtensions = map[string]string{
	".json": "",
	".txt":  "text",
	".text": "text",
	".html": "html",
	".htm":  "html",
}

// ReadLettersFromDir reads every letter file directly inside dir, sorted by
// name. Unreadable files are returned with Err set.
func ReadLettersFromDir(dir string) ([]LetterFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := letterExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	files := make([]LetterFile, 0, len(paths))
	for _, path := range paths {
		letter, err := ReadLetterFile(path)
		files = append(files, LetterFile{Path: path, Letter: letter, Err: err})
	}
	return files, nil
}

// ReadLetterFile reads one letter. JSON files are decoded as a Letter
// document; anything else is the letter body. The letter id defaults to the
// file name without its extension.
func ReadLetterFile(path string) (model.Letter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Letter{}, fmt.Errorf("read letter: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var letter model.Letter
	if ext == ".json" {
		if err := json.Unmarshal(data, &letter); err != nil {
			return model.Letter{}, fmt.Errorf("decode letter %s: %w", filepath.Base(path), err)
		}
	} else {
		letter.Text = string(data)
		letter.Format = letterExtensions[ext]
	}

	if letter.ID == "" {
		letter.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return letter, nil
}

// ReadAnchorsFile reads a JSON array of source anchors
func ReadAnchorsFile(path string) ([]model.SourceAnchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read anchors: %w", err)
	}

	var anchors []model.SourceAnchor
	if err := json.Unmarshal(data, &anchors); err != nil {
		return nil, fmt.Errorf("decode anchors: %w", err)
	}
	return anchors, nil
}
