// Package runner orchestrates test execution: one pass over the test
// cases, driving the sequencer and collecting per-case results.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abharathkumarr/insect-id-runner/pkg/classifier"
	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
)

// Interactions is the sequencer surface the runner drives.
type Interactions interface {
	SkipOnboarding() bool
	GrantPermissions() bool
	OpenGallery() bool
	SelectImage(imagePath string) bool
	UploadViaIntent(imagePath string) bool
	WaitForScan(ctx context.Context) bool
	WaitForImageSelection(ctx context.Context) bool
	DismissAd() bool
	ExtractResult() core.ScrapedResult
	ClickIdentify() bool
	ResetForNext() bool
}

// ImageResolver maps a case's image name onto a local file path.
type ImageResolver interface {
	ImagePath(imageName string, imageType core.ImageSource) string
}

// Screenshotter captures the device screen. Optional; screenshots are
// best-effort artifacts.
type Screenshotter interface {
	Screenshot() ([]byte, error)
}

// Runner executes test cases sequentially and owns the append-only
// result list. Not safe for concurrent use; one run at a time.
type Runner struct {
	cfg    *config.Config
	seq    Interactions
	images ImageResolver
	cls    *classifier.Classifier
	log    *logger.Logger

	manual  bool
	screens Screenshotter
	state   core.RunState
	results []core.TestResult

	sleep func(time.Duration)
}

// New creates a runner in the ready state.
func New(cfg *config.Config, seq Interactions, images ImageResolver, cls *classifier.Classifier, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		cfg:    cfg,
		seq:    seq,
		images: images,
		cls:    cls,
		log:    log,
		state:  core.RunReady,
		sleep:  time.Sleep,
	}
}

// SetManual switches to manual mode: the user picks images by hand and
// the runner only watches for the app to react.
func (r *Runner) SetManual(manual bool) {
	r.manual = manual
}

// SetScreenshotter enables before/after screenshots per case.
func (r *Runner) SetScreenshotter(s Screenshotter) {
	r.screens = s
}

// State returns the current run state.
func (r *Runner) State() core.RunState {
	return r.state
}

// Results returns the results collected so far, including partial ones
// from an interrupted run.
func (r *Runner) Results() []core.TestResult {
	return r.results
}

// Setup walks the app to a state where images can be uploaded. In
// manual mode only permissions are handled; the user does the rest.
func (r *Runner) Setup() error {
	r.log.Info("Setting up test environment...")

	if r.manual {
		r.log.Info("Manual mode: handle onboarding and image selection yourself")
		r.seq.GrantPermissions()
		r.log.Info("Waiting for you to tap Get Started and select an image...")
		return nil
	}

	r.sleep(500 * time.Millisecond)
	r.seq.SkipOnboarding()
	r.seq.GrantPermissions()
	r.log.Info("Test environment setup complete")
	return nil
}

// RunAll executes the cases in order. Cancelling the context stops the
// run after recording an interrupted result for the case in flight;
// everything collected so far is returned either way.
func (r *Runner) RunAll(ctx context.Context, cases []core.TestCase) ([]core.TestResult, error) {
	if len(cases) == 0 {
		r.state = core.RunCompleted
		return nil, core.ErrNoTestCases
	}

	r.state = core.RunRunning
	r.log.Info("Running %d test cases...", len(cases))

	for i, tc := range cases {
		if ctx.Err() != nil {
			r.state = core.RunInterrupted
			r.log.Info("Run interrupted: completed %d/%d tests", len(r.results), len(cases))
			return r.results, nil
		}

		r.log.Info("Test %d/%d: %s", i+1, len(cases), tc.ID)
		result := r.runSingle(ctx, tc)
		r.results = append(r.results, result)

		if result.Status == core.StatusInterrupted {
			r.state = core.RunInterrupted
			r.log.Info("Run interrupted: completed %d/%d tests", len(r.results), len(cases))
			return r.results, nil
		}

		if !r.manual {
			r.sleep(r.cfg.Timeouts.Settle)
		}
	}

	r.state = core.RunCompleted
	return r.results, nil
}

// runSingle pushes one case through the app. Never panics and never
// returns early without a result; whatever happened lands in the
// returned TestResult.
func (r *Runner) runSingle(ctx context.Context, tc core.TestCase) core.TestResult {
	result := core.NewTestResult(tc)
	r.log.Info("Running test case: %s - %s", tc.ID, tc.ImageName)

	imagePath := r.images.ImagePath(tc.ImageName, tc.ImageType)
	if _, err := os.Stat(imagePath); err != nil {
		wrapped := core.ErrImageNotFound.WithMessage(fmt.Sprintf("image not found: %s", imagePath))
		result.Status = core.StatusError
		result.Error = wrapped.Error()
		r.log.Error("Test %s: %v", tc.ID, wrapped)
		return result
	}

	r.captureScreen("screenshot_before_" + tc.ID + ".png")

	if r.manual {
		if !r.seq.WaitForImageSelection(ctx) && ctx.Err() != nil {
			return r.interrupted(result)
		}
		if !r.seq.WaitForScan(ctx) && ctx.Err() != nil {
			return r.interrupted(result)
		}
	} else {
		r.log.Info("Uploading image: %s", imagePath)
		if r.seq.OpenGallery() {
			if !r.seq.SelectImage(imagePath) {
				r.log.Info("Gallery selection failed, trying intent method")
				r.seq.UploadViaIntent(imagePath)
			}
		} else {
			r.seq.UploadViaIntent(imagePath)
		}
		if !r.seq.WaitForScan(ctx) && ctx.Err() != nil {
			return r.interrupted(result)
		}
	}

	r.seq.DismissAd()

	scraped := r.seq.ExtractResult()
	result.AppResult = &scraped

	cls := r.cls.Classify(scraped, tc.ExpectedSpecies)
	result.Classification = &cls
	if cls.Category == core.CategoryCorrectSpecies {
		result.Status = core.StatusPassed
	} else {
		result.Status = core.StatusFailed
	}

	r.captureScreen("screenshot_after_" + tc.ID + ".png")

	r.log.Info("Test %s completed: %s", tc.ID, cls.Category)

	if r.manual {
		if r.seq.ClickIdentify() {
			r.log.Info("Identify clicked, ready for next test")
		} else {
			r.log.Warn("Could not click Identify, manual intervention may be needed")
		}
	} else {
		r.seq.ResetForNext()
	}

	return result
}

func (r *Runner) interrupted(result core.TestResult) core.TestResult {
	r.log.Info("Test %s interrupted by user", result.TestID)
	result.Status = core.StatusInterrupted
	result.Error = "test interrupted by user"
	return result
}

// captureScreen saves a screenshot artifact, best effort.
func (r *Runner) captureScreen(name string) {
	if r.screens == nil {
		return
	}
	data, err := r.screens.Screenshot()
	if err != nil {
		r.log.Debug("screenshot failed: %v", err)
		return
	}
	if err := os.MkdirAll(r.cfg.Paths.ResultsDir, 0o755); err != nil {
		return
	}
	path := filepath.Join(r.cfg.Paths.ResultsDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.log.Debug("screenshot write failed: %v", err)
	}
}
