package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

func TestNewRuleEngine_RequiresClassifyFunction(t *testing.T) {
	_, err := NewRuleEngine("var x = 1;")
	assert.Error(t, err)

	_, err = NewRuleEngine("var classify = 42;")
	assert.Error(t, err)

	_, err = NewRuleEngine("this is not javascript")
	assert.Error(t, err)
}

func TestRuleEngine_Match(t *testing.T) {
	engine, err := NewRuleEngine(`
		function classify(result, expected) {
			if (result.species === "Emperor Dragonfly") {
				return {
					category: "correct_species",
					reason: "emperor is a darner",
					appSpecies: "dragonfly_darner"
				};
			}
			return null;
		}
	`)
	require.NoError(t, err)

	cls, ok := engine.Match(core.ScrapedResult{Species: "Emperor Dragonfly"}, "darner")
	require.True(t, ok)
	assert.Equal(t, core.CategoryCorrectSpecies, cls.Category)
	assert.Equal(t, "dragonfly_darner", cls.AppSpecies)
	assert.Equal(t, "emperor is a darner", cls.Reason)
	assert.Equal(t, "darner", cls.ExpectedSpecies)
}

func TestRuleEngine_NullFallsThrough(t *testing.T) {
	engine, err := NewRuleEngine(`function classify(result, expected) { return null; }`)
	require.NoError(t, err)

	_, ok := engine.Match(core.ScrapedResult{Species: "Dragonfly"}, "darner")
	assert.False(t, ok)
}

func TestRuleEngine_BadCategoryFallsThrough(t *testing.T) {
	engine, err := NewRuleEngine(`
		function classify(result, expected) {
			return { category: "made_up_category" };
		}
	`)
	require.NoError(t, err)

	_, ok := engine.Match(core.ScrapedResult{Species: "Dragonfly"}, "darner")
	assert.False(t, ok)
}

func TestRuleEngine_ScriptErrorFallsThrough(t *testing.T) {
	engine, err := NewRuleEngine(`
		function classify(result, expected) { throw new Error("boom"); }
	`)
	require.NoError(t, err)

	_, ok := engine.Match(core.ScrapedResult{Species: "Dragonfly"}, "darner")
	assert.False(t, ok)
}

func TestRuleEngine_SeesConfidence(t *testing.T) {
	engine, err := NewRuleEngine(`
		function classify(result, expected) {
			if (result.confidence !== undefined && result.confidence < 50) {
				return {
					category: "no_identification",
					reason: "confidence too low",
					appSpecies: "no_insect_visible"
				};
			}
			return null;
		}
	`)
	require.NoError(t, err)

	conf := 30
	cls, ok := engine.Match(core.ScrapedResult{Species: "Dragonfly", Confidence: &conf}, "darner")
	require.True(t, ok)
	assert.Equal(t, core.CategoryNoIdentification, cls.Category)

	conf = 90
	_, ok = engine.Match(core.ScrapedResult{Species: "Dragonfly", Confidence: &conf}, "darner")
	assert.False(t, ok)
}

func TestClassifierUsesMatcherFirst(t *testing.T) {
	c := New(config.Default().Keywords)
	engine, err := NewRuleEngine(`
		function classify(result, expected) {
			return {
				category: "incorrect_species",
				reason: "rule override",
				appSpecies: result.species
			};
		}
	`)
	require.NoError(t, err)
	c.SetMatcher(engine)

	cls := c.Classify(core.ScrapedResult{Species: "Dragonfly"}, "darner")
	assert.Equal(t, core.CategoryIncorrectSpecies, cls.Category)
	assert.Equal(t, "rule override", cls.Reason)
}
