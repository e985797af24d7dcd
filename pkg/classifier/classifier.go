// Package classifier turns scraped identification results into
// outcome categories.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

// Matcher is an optional classification hook consulted before the
// built-in rules. Returning false falls through to the defaults.
type Matcher interface {
	Match(result core.ScrapedResult, expected string) (core.Classification, bool)
}

// Classifier assigns a category to each scraped app result.
type Classifier struct {
	keywords config.KeywordConfig
	matcher  Matcher
}

// New creates a classifier with the given keyword tables.
func New(keywords config.KeywordConfig) *Classifier {
	return &Classifier{keywords: keywords}
}

// SetMatcher installs a custom rule hook tried before the built-in logic.
func (c *Classifier) SetMatcher(m Matcher) {
	c.matcher = m
}

// Classify combines the app's result with the expected species.
// When the app shows the genus, the combined app species becomes
// "<genus>_<subtype>" for known subtypes and the bare genus otherwise.
func (c *Classifier) Classify(result core.ScrapedResult, expected string) core.Classification {
	if expected == "" {
		expected = c.keywords.Genus
	}

	if c.matcher != nil {
		if cls, ok := c.matcher.Match(result, expected); ok {
			return cls
		}
	}

	species := result.Species
	speciesLower := strings.ToLower(species)
	fullText := strings.ToLower(result.FullText)
	expectedLower := strings.ToLower(expected)

	showsGenus := false
	if species != "" {
		showsGenus = containsAny(speciesLower, c.genusVariants())
	} else if fullText != "" {
		showsGenus = containsAny(fullText, c.genusVariants())
	}

	// Empty or sentinel species plus a no-insect phrase means the app
	// looked and found nothing. Checked before genus matching so that
	// "No insect detected" text never counts as an identification.
	if species == "" || isNoInsectSentinel(speciesLower) {
		if strings.Contains(fullText, "no insect") || strings.Contains(fullText, "couldn't detect") {
			return core.Classification{
				Category:        core.CategoryNoIdentification,
				Reason:          "App detected no insect in the image",
				AppSpecies:      "no_insect_visible",
				ExpectedSpecies: expected,
				Confidence:      result.Confidence,
			}
		}
	}

	if showsGenus {
		genusLabel := titleCase(c.keywords.Genus)
		combined := c.keywords.Genus
		reason := "App correctly identified as " + genusLabel
		for _, subtype := range c.keywords.Subtypes {
			if expectedLower == subtype {
				combined = c.keywords.Genus + "_" + subtype
				reason = fmt.Sprintf("App correctly identified as %s (expected: %s)", genusLabel, expected)
				break
			}
		}
		if combined == c.keywords.Genus && expectedLower != c.keywords.Genus {
			reason = fmt.Sprintf("App identified as %s (expected: %s)", genusLabel, expected)
		}

		return core.Classification{
			Category:        core.CategoryCorrectSpecies,
			Reason:          reason,
			AppSpecies:      combined,
			ExpectedSpecies: expected,
			Confidence:      result.Confidence,
		}
	}

	allText := speciesLower + " " + fullText

	if c.isNoIdentification(allText, speciesLower) {
		return core.Classification{
			Category:        core.CategoryNoIdentification,
			Reason:          "App did not provide identification or returned error",
			AppSpecies:      "no_insect_visible",
			ExpectedSpecies: expected,
			Confidence:      result.Confidence,
		}
	}

	if len(species) > 2 {
		if !containsAny(speciesLower, c.genusVariants()) {
			return core.Classification{
				Category:        core.CategoryIncorrectSpecies,
				Reason:          fmt.Sprintf("App identified as %q but expected %s species (got: %s)", species, c.keywords.Genus, expected),
				AppSpecies:      species,
				ExpectedSpecies: expected,
				Confidence:      result.Confidence,
			}
		}
		if c.isCorrectSpecies(speciesLower, allText, expectedLower) {
			return core.Classification{
				Category:        core.CategoryCorrectSpecies,
				Reason:          fmt.Sprintf("App correctly identified as %s", species),
				AppSpecies:      species,
				ExpectedSpecies: expected,
				Confidence:      result.Confidence,
			}
		}
		return core.Classification{
			Category:        core.CategoryIncorrectSpecies,
			Reason:          fmt.Sprintf("App identified as %q but expected %q", species, expected),
			AppSpecies:      species,
			ExpectedSpecies: expected,
			Confidence:      result.Confidence,
		}
	}

	return core.Classification{
		Category:        core.CategoryNoIdentification,
		Reason:          "Could not extract valid identification from app",
		AppSpecies:      "no_insect_visible",
		ExpectedSpecies: expected,
		Confidence:      result.Confidence,
	}
}

func (c *Classifier) genusVariants() []string {
	if len(c.keywords.GenusVariants) > 0 {
		return c.keywords.GenusVariants
	}
	return []string{c.keywords.Genus}
}

func isNoInsectSentinel(speciesLower string) bool {
	switch speciesLower {
	case "none", "no insect", "no insect visible", "no insect detected":
		return true
	}
	return false
}

func (c *Classifier) isNoIdentification(allText, speciesLower string) bool {
	for _, kw := range c.keywords.NoIdentification {
		if strings.Contains(allText, strings.ToLower(kw)) {
			return true
		}
	}

	if len(strings.TrimSpace(speciesLower)) < 2 {
		return true
	}

	for _, kw := range c.keywords.Errors {
		if strings.Contains(allText, strings.ToLower(kw)) {
			return true
		}
	}

	return false
}

func (c *Classifier) isCorrectSpecies(speciesLower, allText, expectedLower string) bool {
	if strings.Contains(speciesLower, expectedLower) || strings.Contains(expectedLower, speciesLower) {
		return true
	}

	// Family and genus synonyms count as a match for their subtype
	if synonyms, ok := c.keywords.SubtypeSynonyms[expectedLower]; ok {
		for _, syn := range synonyms {
			if strings.Contains(speciesLower, syn) || strings.Contains(allText, syn) {
				return true
			}
		}
	}

	for _, sp := range c.keywords.ExpectedSpecies {
		spLower := strings.ToLower(sp)
		if strings.Contains(speciesLower, spLower) || strings.Contains(allText, spLower) {
			return true
		}
	}

	if expectedLower == strings.ToLower(c.keywords.Genus) {
		if containsAny(speciesLower, c.genusVariants()) || containsAny(allText, c.genusVariants()) {
			return true
		}
	}

	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// CategorySummary holds aggregate counts over a set of classifications.
type CategorySummary struct {
	Total            int     `json:"total"`
	CorrectSpecies   int     `json:"correct_species"`
	IncorrectSpecies int     `json:"incorrect_species"`
	NoIdentification int     `json:"no_identification"`
	Accuracy         float64 `json:"accuracy"`
}

// Summarize aggregates classifications into counts and accuracy.
// Accuracy is correct/total as a percentage, rounded to two decimals;
// an empty input yields 0.0 rather than NaN.
func Summarize(classifications []core.Classification) CategorySummary {
	summary := CategorySummary{Total: len(classifications)}
	if summary.Total == 0 {
		return summary
	}

	for _, cls := range classifications {
		switch cls.Category {
		case core.CategoryCorrectSpecies:
			summary.CorrectSpecies++
		case core.CategoryIncorrectSpecies:
			summary.IncorrectSpecies++
		default:
			summary.NoIdentification++
		}
	}

	accuracy := float64(summary.CorrectSpecies) / float64(summary.Total) * 100
	summary.Accuracy = math.Round(accuracy*100) / 100
	return summary
}
