// Package report builds and persists the end-of-run report: aggregate
// counts, every per-case result, and per-category breakdowns.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abharathkumarr/insect-id-runner/pkg/classifier"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

// Report is the JSON artifact written after every run, interrupted or
// not.
type Report struct {
	Timestamp       time.Time                 `json:"timestamp"`
	TotalTests      int                       `json:"total_tests"`
	Summary         classifier.CategorySummary `json:"summary"`
	TestResults     []core.TestResult         `json:"test_results"`
	DetailedSummary DetailedSummary           `json:"detailed_summary"`
}

// DetailedSummary buckets full results by outcome. Uncertain stays in
// the schema for old report consumers but is always empty; those
// results live under no_identification now.
type DetailedSummary struct {
	CorrectSpecies   []core.TestResult `json:"correct_species"`
	IncorrectSpecies []core.TestResult `json:"incorrect_species"`
	NoIdentification []core.TestResult `json:"no_identification"`
	Uncertain        []core.TestResult `json:"uncertain"`
	Errors           []core.TestResult `json:"errors"`
}

// Build assembles a report from run results.
func Build(results []core.TestResult) *Report {
	var classifications []core.Classification
	for _, r := range results {
		if r.Classification != nil {
			classifications = append(classifications, *r.Classification)
		}
	}

	report := &Report{
		Timestamp:   time.Now(),
		TotalTests:  len(results),
		Summary:     classifier.Summarize(classifications),
		TestResults: results,
		DetailedSummary: DetailedSummary{
			CorrectSpecies:   []core.TestResult{},
			IncorrectSpecies: []core.TestResult{},
			NoIdentification: []core.TestResult{},
			Uncertain:        []core.TestResult{},
			Errors:           []core.TestResult{},
		},
	}

	for _, r := range results {
		if r.Status == core.StatusError {
			report.DetailedSummary.Errors = append(report.DetailedSummary.Errors, r)
		}
		if r.Classification == nil {
			continue
		}
		switch r.Classification.Category {
		case core.CategoryCorrectSpecies:
			report.DetailedSummary.CorrectSpecies = append(report.DetailedSummary.CorrectSpecies, r)
		case core.CategoryIncorrectSpecies:
			report.DetailedSummary.IncorrectSpecies = append(report.DetailedSummary.IncorrectSpecies, r)
		default:
			report.DetailedSummary.NoIdentification = append(report.DetailedSummary.NoIdentification, r)
		}
	}

	return report
}

// Write saves the report as a timestamped JSON file in dir and returns
// the file path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("test_report_%s.json", r.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := atomicWriteJSON(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// atomicWriteJSON writes JSON through a temp file and rename, so a
// crash mid-write never leaves a truncated report behind.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
