package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

func newClassifier() *Classifier {
	return New(config.Default().Keywords)
}

func TestClassify_GenusWithDarnerExpected(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "darner")

	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly_darner", cls.AppSpecies)
	assert.Equal(t, "darner", cls.ExpectedSpecies)
}

func TestClassify_GenusWithSkimmerExpected(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "skimmer")

	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly_skimmer", cls.AppSpecies)
}

func TestClassify_GenusWithGenusExpected(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "dragonfly")

	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly", cls.AppSpecies)
}

func TestClassify_GenusWithUnknownExpected(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "butterfly")

	// Still correct: the tool tests genus-level identification
	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly", cls.AppSpecies)
}

func TestClassify_GenusInFullTextOnly(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{
		FullText: "This appears to be a Dragonfly, a species of Odonata",
	}, "darner")

	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly_darner", cls.AppSpecies)
}

func TestClassify_SpacedGenusSpelling(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragon Fly"}, "dragonfly")

	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
}

func TestClassify_NoInsectDetected(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{
		Species:  "No insect detected",
		FullText: "No insect detected. Tips for better photos",
	}, "darner")

	assert.Equal(t, core.CategoryNoIdentification, cls.Category)
	assert.Equal(t, "no_insect_visible", cls.AppSpecies)
	assert.Contains(t, cls.Reason, "no insect")
}

func TestClassify_NoInsectWithEmptySpecies(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{
		FullText: "We couldn't detect any insects in this photo",
	}, "skimmer")

	assert.Equal(t, core.CategoryNoIdentification, cls.Category)
	assert.Equal(t, "no_insect_visible", cls.AppSpecies)
}

func TestClassify_NoInsectBeatsGenusInText(t *testing.T) {
	// "No insect" verdicts win even when the surrounding text
	// mentions the genus, as long as the species field is empty.
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{
		Species:  "None",
		FullText: "No insect detected, try photographing the dragonfly closer",
	}, "darner")

	assert.Equal(t, core.CategoryNoIdentification, cls.Category)
}

func TestClassify_IncorrectSpecies(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Butterfly"}, "darner")

	assert.Equal(t, core.CategoryIncorrectSpecies, cls.Category)
	assert.Equal(t, "Butterfly", cls.AppSpecies)
	assert.Contains(t, cls.Reason, "Butterfly")
}

func TestClassify_ErrorTextIsNoIdentification(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{
		Species:  "xx",
		FullText: "Something went wrong, please try again",
	}, "darner")

	assert.Equal(t, core.CategoryNoIdentification, cls.Category)
}

func TestClassify_EmptyResult(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{}, "darner")

	assert.Equal(t, core.CategoryNoIdentification, cls.Category)
	assert.Equal(t, "no_insect_visible", cls.AppSpecies)
}

func TestClassify_DefaultsExpectedToGenus(t *testing.T) {
	c := newClassifier()
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "")

	assert.Equal(t, "dragonfly", cls.ExpectedSpecies)
	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
}

func TestClassify_ConfidencePassesThrough(t *testing.T) {
	c := newClassifier()
	conf := 87
	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly", Confidence: &conf}, "darner")

	require.NotNil(t, cls.Confidence)
	assert.Equal(t, 87, *cls.Confidence)
}

func TestSummarize(t *testing.T) {
	classifications := []core.Classification{
		{Category: core.CategoryCorrectSpecies},
		{Category: core.CategoryCorrectSpecies},
		{Category: core.CategoryIncorrectSpecies},
		{Category: core.CategoryNoIdentification},
	}

	s := Summarize(classifications)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.CorrectSpecies)
	assert.Equal(t, 1, s.IncorrectSpecies)
	assert.Equal(t, 1, s.NoIdentification)
	assert.Equal(t, 50.0, s.Accuracy)
}

func TestSummarize_RoundsAccuracy(t *testing.T) {
	classifications := []core.Classification{
		{Category: core.CategoryCorrectSpecies},
		{Category: core.CategoryIncorrectSpecies},
		{Category: core.CategoryNoIdentification},
	}

	s := Summarize(classifications)
	assert.Equal(t, 33.33, s.Accuracy)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.Accuracy)
}
