package sequencer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abharathkumarr/insect-id-runner/pkg/uiautomator2"
)

// GrantPermissions clicks through permission dialogs. Checks are fast:
// one short lookup per known button label, and missing dialogs are fine.
func (s *Sequencer) GrantPermissions() bool {
	for _, label := range s.cfg.Keywords.Permissions {
		xpath := textEquals("android.widget.Button", label)
		if s.runChain("permission", s.clickChain([]string{xpath}, s.cfg.Timeouts.Element)) {
			s.log.Info("Clicked permission: %s", label)
			s.sleep(300 * time.Millisecond)
			return true
		}
	}
	return true
}

// SkipOnboarding gets past the welcome screens. The Skip button is
// tried first at its known coordinates, then the Get Started button
// through progressively cruder strategies, ending with a blind tap at
// the center measured from the layout dump.
func (s *Sequencer) SkipOnboarding() bool {
	s.log.Info("Checking onboarding...")
	s.sleep(500 * time.Millisecond)

	clicked := false

	// Skip sits top-right and dodges the server's click events
	if s.dev.RawTap(s.cfg.Taps.SkipX, s.cfg.Taps.SkipY) == nil {
		s.sleep(1 * time.Second)
		if !s.exists(descEquals("Get Started"), 500*time.Millisecond) {
			s.log.Info("Skipped onboarding via Skip button")
			clicked = true
		}
	}

	if !clicked {
		chain := []Strategy{
			locateClick{ui: s.ui, strategy: uiautomator2.StrategyXPath, selector: descEquals("Get Started"), timeout: s.cfg.Timeouts.Explicit},
			locateClick{ui: s.ui, strategy: uiautomator2.StrategyXPath, selector: "//android.widget.Button[@content-desc='Get Started']", timeout: s.cfg.Timeouts.Explicit},
			locateClick{ui: s.ui, strategy: uiautomator2.StrategyAccessibilityID, selector: "Get Started", timeout: s.cfg.Timeouts.Explicit},
			locateRawTap{ui: s.ui, dev: s.dev, strategy: uiautomator2.StrategyXPath, selector: descEquals("Get Started"), timeout: s.cfg.Timeouts.Explicit},
			coordTap{dev: s.dev, x: s.cfg.Taps.GetStartedX, y: s.cfg.Taps.GetStartedY},
		}
		clicked = s.runChain("get-started", chain)
	}

	if clicked {
		// The bottom sheet takes a moment to slide up
		s.sleep(s.cfg.Timeouts.Settle)
		if s.exists(descEquals("Get Started"), 500*time.Millisecond) {
			s.log.Warn("Still on onboarding, retrying tap")
			for i := 0; i < 3; i++ {
				s.dev.RawTap(s.cfg.Taps.GetStartedX, s.cfg.Taps.GetStartedY)
				s.sleep(300 * time.Millisecond)
			}
			s.sleep(1 * time.Second)
		}
	}

	s.clickAllowDialog()
	return true
}

// clickAllowDialog dismisses the notification permission prompt.
func (s *Sequencer) clickAllowDialog() bool {
	selectors := []string{
		textEquals("android.widget.Button", "Allow"),
		"//*[@text='Allow']",
		"//*[@resource-id='com.android.permissioncontroller:id/permission_allow_button']",
	}
	for attempt := 0; attempt < 3; attempt++ {
		if s.runChain("allow-dialog", s.clickChain(selectors, s.cfg.Timeouts.Element)) {
			s.sleep(500 * time.Millisecond)
			return true
		}
		s.sleep(300 * time.Millisecond)
	}
	return false
}

// OpenGallery clicks "Choose from Gallery" on the bottom sheet. Falls
// back to tapping the sheet's usual screen positions when no selector
// matches, verifying the picker actually opened.
func (s *Sequencer) OpenGallery() bool {
	s.log.Info("Opening gallery...")
	s.sleep(1 * time.Second)

	selectors := []string{
		descEquals("Choose from Gallery"),
		"//android.widget.Button[@content-desc='Choose from Gallery']",
		descContains("Choose from Gallery"),
		"//*[@text='Choose from Gallery']",
		textEquals("android.widget.Button", "Choose from Gallery"),
		textEquals("android.widget.TextView", "Choose from Gallery"),
		textContains("Choose from Gallery"),
	}
	if s.runChain("open-gallery", s.clickChain(selectors, 3*time.Second)) {
		s.sleep(s.cfg.Timeouts.Settle)
		return true
	}

	s.dumpPageSource("page_source_debug.xml")

	// The sheet lists Take Photo / Choose from Gallery / Skip to App;
	// the gallery row lands around 60% of screen height
	width, height, err := s.dev.ScreenSize()
	if err == nil {
		fractions := []float64{0.6, 0.65, 0.55}
		pickerMarkers := []string{"Recent", "Downloads", "Images", "Gallery"}
		for _, f := range fractions {
			if s.dev.RawTap(width/2, int(float64(height)*f)) != nil {
				continue
			}
			s.sleep(1 * time.Second)
			for _, marker := range pickerMarkers {
				if s.exists(textContains(marker), 500*time.Millisecond) {
					s.log.Info("Gallery picker opened")
					return true
				}
			}
		}
	}

	s.log.Warn("Gallery button not found")
	return false
}

// SelectImage pushes the image to the device and picks it in the
// gallery, matching by file name first and falling back to the first
// few thumbnails.
func (s *Sequencer) SelectImage(imagePath string) bool {
	s.log.Info("Selecting image: %s", imagePath)

	imageName := filepath.Base(imagePath)
	devicePath := s.cfg.Paths.DeviceDir + "/" + imageName

	if err := s.dev.Push(imagePath, devicePath); err != nil {
		s.log.Warn("Could not copy image to device: %v", err)
	} else {
		s.log.Info("Image copied to device: %s", devicePath)
		s.scanMedia(devicePath)
	}
	s.sleep(500 * time.Millisecond)

	folderSelectors := []string{
		textEquals("android.widget.TextView", "Download"),
		textEquals("android.widget.TextView", "Downloads"),
	}
	if s.runChain("gallery-folder", s.clickChain(folderSelectors, s.cfg.Timeouts.Explicit)) {
		s.sleep(500 * time.Millisecond)
	}

	stem := strings.TrimSuffix(imageName, filepath.Ext(imageName))
	nameSelectors := []string{
		fmt.Sprintf("//android.widget.TextView[contains(@text, '%s')]", stem),
		textEquals("android.widget.TextView", imageName),
		descContains(stem),
	}
	found := s.runChain("select-image", s.clickChain(nameSelectors, s.cfg.Timeouts.Explicit))

	if !found {
		s.log.Info("Image name not found in gallery, selecting first available")
		fallbackSelectors := []string{
			"(//android.widget.ImageView)[1]",
			"(//android.widget.ImageView)[2]",
			"(//android.widget.ImageView)[3]",
		}
		found = s.runChain("select-image-fallback", s.clickChain(fallbackSelectors, s.cfg.Timeouts.Explicit))
	}

	if !found {
		s.log.Warn("Could not find image in gallery")
		return false
	}

	s.sleep(1500 * time.Millisecond)
	return true
}

// EnsureAppRunning relaunches the app when it dropped out of the
// foreground. Intents and ads both tend to knock it over.
func (s *Sequencer) EnsureAppRunning() bool {
	if s.dev.IsForeground(s.cfg.App.Package) {
		return true
	}

	s.log.Info("App closed, restarting...")
	if err := s.dev.LaunchActivity(s.cfg.App.Package, s.cfg.App.Activity); err != nil {
		s.log.Warn("Could not relaunch app: %v", err)
		return false
	}
	s.sleep(s.cfg.Timeouts.Settle)
	return true
}

// UploadViaIntent hands the image to the app through a VIEW intent,
// the fallback when the gallery flow breaks. The intent can reset the
// app to onboarding, which is detected and re-skipped.
func (s *Sequencer) UploadViaIntent(imagePath string) bool {
	s.log.Info("Uploading image via intent: %s", imagePath)
	s.EnsureAppRunning()

	imageName := filepath.Base(imagePath)
	devicePath := s.cfg.Paths.DeviceDir + "/" + imageName
	if err := s.dev.Push(imagePath, devicePath); err != nil {
		s.log.Warn("Could not copy image to device: %v", err)
		return false
	}
	s.scanMedia(devicePath)

	cmd := fmt.Sprintf(
		"am start -a android.intent.action.VIEW -d file://%s -t image/* -n %s/%s",
		devicePath, s.cfg.App.Package, s.cfg.App.Activity,
	)
	if _, err := s.dev.Shell(cmd); err != nil {
		s.log.Warn("Intent failed: %v", err)
		s.EnsureAppRunning()
		return false
	}

	s.sleep(s.cfg.Timeouts.Settle)
	s.EnsureAppRunning()

	if src := s.source(); src != "" {
		s.dumpPageSource("page_source_after_intent.xml")
		if strings.Contains(src, "Get Started") {
			s.log.Warn("App reset to onboarding after intent")
			for i := 0; i < 2; i++ {
				s.dev.RawTap(s.cfg.Taps.GetStartedX, s.cfg.Taps.GetStartedY)
				s.sleep(1 * time.Second)
			}
			s.clickAllowDialog()
			s.sleep(s.cfg.Timeouts.Settle)
		}
	}

	s.log.Info("Image uploaded via intent")
	return true
}

// scanMedia announces a freshly pushed file to the media scanner so
// the gallery picker sees it without waiting for a reindex.
func (s *Sequencer) scanMedia(devicePath string) {
	err := s.dev.Broadcast("android.intent.action.MEDIA_SCANNER_SCAN_FILE", "file://"+devicePath)
	if err != nil {
		s.log.Debug("Media scan broadcast failed: %v", err)
	}
}

// WaitForScan blocks until the app finishes analyzing the image.
// Returns promptly when no scanning screen ever appears, and gives up
// after the configured ceiling; either way the result screen check
// decides what happens next.
func (s *Sequencer) WaitForScan(ctx context.Context) bool {
	s.log.Info("Waiting for image scan to complete...")

	scanningFound := false
	for _, indicator := range s.cfg.Keywords.Scanning {
		if s.exists(textContains(indicator), 3*time.Second) {
			scanningFound = true
			s.log.Info("Found scanning indicator: %s", indicator)
			break
		}
	}
	if !scanningFound {
		s.log.Info("No scanning screen detected, proceeding")
		return true
	}

	deadline := time.Now().Add(s.cfg.Timeouts.ScanWait)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}

		if src := s.source(); src != "" {
			stillScanning := containsAnyOf(src, s.cfg.Keywords.StillScanning)
			resultAppeared := containsAnyOf(src, s.cfg.Keywords.Results)
			if !stillScanning || resultAppeared {
				s.log.Info("Scanning completed")
				s.sleep(1 * time.Second)
				return true
			}
		}
		s.sleep(1 * time.Second)
	}

	s.log.Warn("Scanning timeout, proceeding anyway")
	return true
}

// WaitForImageSelection waits in manual mode for the user to pick an
// image, detected by the scanning or result screen appearing. Repeated
// session failures mean the app is likely already on the result screen
// with instrumentation knocked out, so the wait ends optimistically.
func (s *Sequencer) WaitForImageSelection(ctx context.Context) bool {
	s.log.Info("Waiting for image to be processed...")

	deadline := time.Now().Add(s.cfg.Timeouts.ManualWait)
	consecutiveFailures := 0

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}

		src, err := s.ui.Source()
		if err != nil {
			consecutiveFailures++
			if consecutiveFailures >= s.cfg.Timeouts.MaxCommFailures {
				s.log.Warn("Session failed %d times, assuming result screen is ready", consecutiveFailures)
				s.sleep(s.cfg.Timeouts.Settle)
				return true
			}
			s.sleep(3 * time.Second)
			continue
		}
		consecutiveFailures = 0

		if containsAnyOf(src, s.cfg.Keywords.Scanning) {
			s.log.Info("Image selection detected: scanning started")
			return true
		}
		if containsAnyOf(src, s.cfg.Keywords.Results) {
			s.log.Info("Image selection detected: result screen appeared")
			return true
		}

		s.sleep(2 * time.Second)
	}

	s.log.Warn("Timeout waiting for image selection, proceeding anyway")
	return true
}

// DismissAd detects an interstitial ad, sits out the mandatory dwell
// time, then closes it: Close button first, corner taps second.
func (s *Sequencer) DismissAd() bool {
	s.log.Info("Checking for advertisement...")
	s.sleep(1 * time.Second)

	src := s.source()
	if src == "" || !containsAnyOf(src, s.cfg.Keywords.AdMarkers) {
		s.log.Info("No advertisement detected")
		return true
	}

	s.log.Info("Advertisement detected, waiting %v", s.cfg.Timeouts.AdDwell)
	s.sleep(s.cfg.Timeouts.AdDwell)

	closeSelectors := []string{
		textEquals("android.widget.Button", "Close"),
		"//*[@text='Close']",
		"//android.widget.Button[contains(@text, 'Close')]",
		textContains("Close"),
		descEquals("Close"),
		"//android.widget.Button[@content-desc='Close']",
	}
	chain := s.clickChain(closeSelectors, s.cfg.Timeouts.Explicit)
	chain = append(chain, locateClick{
		ui:       s.ui,
		strategy: uiautomator2.StrategyAccessibilityID,
		selector: "Close",
		timeout:  s.cfg.Timeouts.Explicit,
	})
	if s.runChain("close-ad", chain) {
		s.sleep(1 * time.Second)
		return true
	}

	// Ads inside WebViews hide their close control from the
	// accessibility tree; tap where the X usually sits
	s.log.Info("Close button not found, trying corner taps")
	width, height, err := s.dev.ScreenSize()
	if err == nil {
		positions := [][2]int{
			{width - 100, 100},
			{width - 150, 150},
			{width / 2, height - 100},
		}
		for _, pos := range positions {
			if s.dev.RawTap(pos[0], pos[1]) != nil {
				continue
			}
			s.sleep(500 * time.Millisecond)
			if after := s.source(); after != "" && !containsAnyOf(after, s.cfg.Keywords.AdMarkers) {
				s.log.Info("Closed advertisement via corner tap")
				return true
			}
		}
	}

	s.log.Warn("Advertisement found but could not be closed, continuing")
	return true
}

// ClickIdentify presses the Identify button that re-arms the app for
// the next image.
func (s *Sequencer) ClickIdentify() bool {
	s.log.Info("Looking for Identify button...")

	selectors := []string{
		textEquals("android.widget.Button", "Identify"),
		"//*[@text='Identify']",
		"//android.widget.Button[contains(@text, 'Identify')]",
		textContains("Identify"),
		descEquals("Identify"),
		"//android.widget.Button[@content-desc='Identify']",
	}
	chain := s.clickChain(selectors, 3*time.Second)
	chain = append(chain, locateClick{
		ui:       s.ui,
		strategy: uiautomator2.StrategyAccessibilityID,
		selector: "Identify",
		timeout:  3 * time.Second,
	})
	if s.runChain("identify", chain) {
		s.sleep(s.cfg.Timeouts.Settle)
		return true
	}

	s.log.Warn("Identify button not found")
	return false
}

// NavigateBack leaves the result screen, through an in-app back button
// when one exists and the system back key otherwise.
func (s *Sequencer) NavigateBack() bool {
	selectors := []string{
		"//android.widget.Button[@content-desc='Back']",
		"//android.widget.ImageButton[@content-desc='Back']",
	}
	if s.runChain("back-button", s.clickChain(selectors, s.cfg.Timeouts.Explicit)) {
		s.sleep(1 * time.Second)
		return true
	}

	if err := s.ui.Back(); err != nil {
		s.log.Warn("Back via automation server failed: %v", err)
		if err := s.dev.PressBack(); err != nil {
			s.log.Warn("Back navigation failed: %v", err)
			return false
		}
	}
	s.sleep(1 * time.Second)
	return true
}

// ResetForNext returns the app to a state where the next image can be
// uploaded.
func (s *Sequencer) ResetForNext() bool {
	s.log.Info("Resetting app for next test...")

	selectors := []string{
		"//android.widget.Button[contains(@text, 'Take another')]",
		"//android.widget.Button[contains(@text, 'New photo')]",
		"//android.widget.Button[contains(@text, 'Retry')]",
		"//android.widget.TextView[contains(@text, 'Take another')]",
	}
	if s.runChain("reset", s.clickChain(selectors, s.cfg.Timeouts.Explicit)) {
		s.sleep(s.cfg.Timeouts.Settle)
		return true
	}

	if s.ClickIdentify() {
		return true
	}

	s.NavigateBack()
	s.sleep(s.cfg.Timeouts.Settle)
	return true
}

// dumpPageSource saves the current hierarchy for offline debugging.
func (s *Sequencer) dumpPageSource(name string) {
	src := s.source()
	if src == "" {
		return
	}
	if err := os.MkdirAll(s.cfg.Paths.ResultsDir, 0o755); err != nil {
		return
	}
	path := filepath.Join(s.cfg.Paths.ResultsDir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err == nil {
		s.log.Info("Saved page source to %s", path)
	}
}

func containsAnyOf(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
