// Package sequencer drives the app under test through its screens:
// onboarding, gallery upload, scan wait, ad dismissal and result
// extraction. Every step reports success as a bool and recovers on its
// own; only the orchestrator decides what a failed step means.
package sequencer

import (
	"fmt"
	"time"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
	"github.com/abharathkumarr/insect-id-runner/pkg/uiautomator2"
)

// Automation is the slice of the UIAutomator2 session the sequencer
// needs. Satisfied by *uiautomator2.Client.
type Automation interface {
	Locate(strategy, selector string, timeout time.Duration) (*uiautomator2.Element, bool, error)
	Source() (string, error)
	Click(x, y int) error
	Back() error
	Screenshot() ([]byte, error)
}

// DeviceControl is the slice of the ADB wrapper the sequencer needs.
// Raw input taps go through here, bypassing the automation server.
type DeviceControl interface {
	Shell(cmd string) (string, error)
	Push(localPath, devicePath string) error
	Broadcast(action, dataURI string) error
	LaunchActivity(pkg, activity string) error
	IsForeground(pkg string) bool
	RawTap(x, y int) error
	PressBack() error
	ScreenSize() (width, height int, err error)
}

// Sequencer performs app-specific interaction steps.
type Sequencer struct {
	ui  Automation
	dev DeviceControl
	cfg *config.Config
	log *logger.Logger

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// New creates a sequencer over an automation session and a device.
func New(ui Automation, dev DeviceControl, cfg *config.Config, log *logger.Logger) *Sequencer {
	if log == nil {
		log = logger.Nop()
	}
	return &Sequencer{
		ui:    ui,
		dev:   dev,
		cfg:   cfg,
		log:   log,
		sleep: time.Sleep,
	}
}

// Strategy is one way of attempting an interaction. Strategies are
// chained; the first one that works wins.
type Strategy interface {
	Name() string
	Attempt() bool
}

// locateClick finds an element and clicks it.
type locateClick struct {
	ui       Automation
	strategy string
	selector string
	timeout  time.Duration
}

func (s locateClick) Name() string {
	return fmt.Sprintf("%s=%s", s.strategy, s.selector)
}

func (s locateClick) Attempt() bool {
	el, found, err := s.ui.Locate(s.strategy, s.selector, s.timeout)
	if err != nil || !found {
		return false
	}
	return el.Click() == nil
}

// locateRawTap finds an element and raw-taps its center, for buttons
// whose click events the automation server cannot deliver.
type locateRawTap struct {
	ui       Automation
	dev      DeviceControl
	strategy string
	selector string
	timeout  time.Duration
}

func (s locateRawTap) Name() string {
	return fmt.Sprintf("raw-tap %s=%s", s.strategy, s.selector)
}

func (s locateRawTap) Attempt() bool {
	el, found, err := s.ui.Locate(s.strategy, s.selector, s.timeout)
	if err != nil || !found {
		return false
	}
	rect, err := el.Rect()
	if err != nil {
		return false
	}
	x, y := rect.Center()
	return s.dev.RawTap(x, y) == nil
}

// coordTap taps fixed screen coordinates through the input subsystem.
type coordTap struct {
	dev  DeviceControl
	x, y int
}

func (s coordTap) Name() string {
	return fmt.Sprintf("tap (%d,%d)", s.x, s.y)
}

func (s coordTap) Attempt() bool {
	return s.dev.RawTap(s.x, s.y) == nil
}

// runChain tries strategies in order until one succeeds.
func (s *Sequencer) runChain(label string, chain []Strategy) bool {
	for _, strat := range chain {
		if strat.Attempt() {
			s.log.Info("%s: succeeded via %s", label, strat.Name())
			return true
		}
		s.log.Debug("%s: %s did not work", label, strat.Name())
	}
	return false
}

// clickChain builds a locateClick chain over xpath selectors.
func (s *Sequencer) clickChain(selectors []string, timeout time.Duration) []Strategy {
	chain := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		chain = append(chain, locateClick{
			ui:       s.ui,
			strategy: uiautomator2.StrategyXPath,
			selector: sel,
			timeout:  timeout,
		})
	}
	return chain
}

func (s *Sequencer) exists(xpath string, timeout time.Duration) bool {
	_, found, _ := s.ui.Locate(uiautomator2.StrategyXPath, xpath, timeout)
	return found
}

func (s *Sequencer) source() string {
	src, err := s.ui.Source()
	if err != nil {
		s.log.Debug("page source unavailable: %v", err)
		return ""
	}
	return src
}

// XPath builders for the selector patterns the app responds to.

func textEquals(widget, text string) string {
	return fmt.Sprintf("//%s[@text='%s']", widget, text)
}

func textContains(text string) string {
	return fmt.Sprintf("//*[contains(@text, '%s')]", text)
}

func descEquals(text string) string {
	return fmt.Sprintf("//*[@content-desc='%s']", text)
}

func descContains(text string) string {
	return fmt.Sprintf("//*[contains(@content-desc, '%s')]", text)
}
