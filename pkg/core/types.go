// Package core defines the shared data model for insect-id-runner:
// test cases, scraped app results, classifications and per-case results.
package core

import "time"

// ImageSource says which sample set an image belongs to.
type ImageSource string

// ImageSource values.
const (
	ImageOriginal  ImageSource = "original"
	ImageAugmented ImageSource = "augmented"
)

// TestCase describes one image to push through the app. Loaded from the
// test-case store and treated as read-only afterwards.
type TestCase struct {
	ID              string      `json:"test_id"`
	ImageName       string      `json:"image_name"`
	ExpectedSpecies string      `json:"expected_species"`
	ImageType       ImageSource `json:"image_type"`
	Augmentation    string      `json:"augmentation"`
}

// ScrapedResult is what the sequencer's extraction step mined out of
// the app's result screen. Produced once per case, never mutated.
type ScrapedResult struct {
	// Species is the normalized species label, empty when the app
	// showed no identification.
	Species string `json:"species"`

	// Confidence is the percentage the app displayed, nil when no
	// percentage was visible (the app usually shows none).
	Confidence *int `json:"confidence"`

	// FullText is the lowercased concatenation of every visible text
	// and accessibility description on the result screen.
	FullText string `json:"full_text"`

	Status ScanStatus `json:"status"`
}

// Classification is the pure mapping of (ScrapedResult, expected
// species) onto an outcome category.
type Classification struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`

	// AppSpecies combines the generic detection with the expected
	// subtype, e.g. "dragonfly_darner", or "no_insect_visible".
	AppSpecies      string `json:"app_species"`
	ExpectedSpecies string `json:"expected_species"`
	Confidence      *int   `json:"confidence"`
}

// TestResult captures everything about one case's execution. Created
// when the case starts, filled in progressively, and appended exactly
// once to the run's result list - including on error or interruption.
type TestResult struct {
	TestID          string      `json:"test_id"`
	ImageName       string      `json:"image_name"`
	ImageType       ImageSource `json:"image_type"`
	Augmentation    string      `json:"augmentation"`
	ExpectedSpecies string      `json:"expected_species"`
	Timestamp       time.Time   `json:"timestamp"`
	Status          ExecStatus  `json:"status"`

	AppResult      *ScrapedResult  `json:"app_result"`
	Classification *Classification `json:"classification"`
	Error          string          `json:"error,omitempty"`
}

// NewTestResult seeds a result for a case that is about to execute.
// Status starts as failed; the orchestrator upgrades it when the
// classification says otherwise.
func NewTestResult(tc TestCase) TestResult {
	return TestResult{
		TestID:          tc.ID,
		ImageName:       tc.ImageName,
		ImageType:       tc.ImageType,
		Augmentation:    tc.Augmentation,
		ExpectedSpecies: tc.ExpectedSpecies,
		Timestamp:       time.Now(),
		Status:          StatusFailed,
	}
}
