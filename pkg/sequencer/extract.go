package sequencer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abharathkumarr/insect-id-runner/pkg/core"
	"github.com/abharathkumarr/insect-id-runner/pkg/uiautomator2"
)

var (
	textAttrRe = regexp.MustCompile(`<[^>]*?text="([^"]+)"`)
	descAttrRe = regexp.MustCompile(`<[^>]*?content-desc="([^"]+)"`)
	percentRe  = regexp.MustCompile(`(\d+)%`)
)

// ExtractResult mines the result screen for the identification verdict.
// It never fails: when nothing usable is on screen the result simply
// carries no species.
func (s *Sequencer) ExtractResult() core.ScrapedResult {
	s.EnsureAppRunning()
	s.log.Info("Extracting identification result...")
	s.sleep(s.cfg.Timeouts.Settle)

	result := core.ScrapedResult{Status: core.ScanNoIdentification}

	var texts, descs []string
	src := s.source()
	if src != "" {
		for _, m := range textAttrRe.FindAllStringSubmatch(src, -1) {
			texts = append(texts, m[1])
		}
		// Flutter apps expose most labels through content-desc only
		for _, m := range descAttrRe.FindAllStringSubmatch(src, -1) {
			descs = append(descs, m[1])
		}
	}

	// Targeted locators catch result labels the hierarchy dump missed
	resultSelectors := []string{
		"//android.widget.TextView[contains(@resource-id, 'result')]",
		"//android.widget.TextView[contains(@resource-id, 'species')]",
		"//android.widget.TextView[contains(@resource-id, 'name')]",
		"//android.widget.TextView[contains(@resource-id, 'identification')]",
		"//android.widget.TextView[2]",
		"//android.widget.TextView[3]",
		descContains(titleCase(s.cfg.Keywords.Genus)),
		descContains("species"),
	}
	for _, sel := range resultSelectors {
		if text := s.elementText(sel); text != "" {
			texts = append(texts, text)
		}
	}

	allParts := append(append([]string{}, texts...), descs...)
	fullText := strings.ToLower(strings.Join(allParts, " "))
	result.FullText = fullText

	// No-insect verdicts first, so their screens never get mistaken
	// for an identification
	for _, pattern := range s.cfg.Keywords.NoInsect {
		if strings.Contains(fullText, pattern) {
			s.log.Info("Detected no-insect result (matched: %s)", pattern)
			return result
		}
	}

	for _, variant := range s.cfg.Keywords.GenusVariants {
		if strings.Contains(fullText, strings.ToLower(variant)) {
			result.Species = titleCase(s.cfg.Keywords.Genus)
			result.Status = core.ScanIdentified
			s.log.Info("Found %s in result", result.Species)
			break
		}
	}

	if result.Species == "" {
		result.Species = s.fallbackSpecies(allParts)
		if result.Species != "" {
			result.Status = core.ScanIdentified
		}
	}

	result.Confidence = s.extractConfidence()

	s.log.Info("Extracted result: species=%q confidence=%v", result.Species, result.Confidence)
	return result
}

// fallbackSpecies scans visible labels for anything that looks like a
// species name, skipping the result screen's fixed chrome.
func (s *Sequencer) fallbackSpecies(parts []string) string {
	for _, text := range parts {
		clean := strings.TrimSpace(text)
		if len(clean) <= 2 {
			continue
		}
		if containsAnyOf(clean, s.cfg.Keywords.SkipChrome) {
			continue
		}
		if containsAnyOf(strings.ToLower(clean), lowerAll(s.cfg.Keywords.GenusVariants)) {
			return titleCase(s.cfg.Keywords.Genus)
		}
		if len(clean) > 5 {
			return clean
		}
	}
	return ""
}

// extractConfidence looks for a percentage anywhere the app might show
// one. The app usually shows none, so nil is the common outcome.
func (s *Sequencer) extractConfidence() *int {
	selectors := []string{
		textContains("%"),
		textContains("confidence"),
	}
	for _, sel := range selectors {
		text := s.elementText(sel)
		if text == "" {
			continue
		}
		if m := percentRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return &v
			}
		}
	}
	return nil
}

func (s *Sequencer) elementText(xpath string) string {
	el, found, err := s.ui.Locate(uiautomator2.StrategyXPath, xpath, s.cfg.Timeouts.Explicit)
	if err != nil || !found {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(item)
	}
	return out
}
