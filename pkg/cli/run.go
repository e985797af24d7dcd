package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/abharathkumarr/insect-id-runner/pkg/classifier"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
	"github.com/abharathkumarr/insect-id-runner/pkg/report"
	"github.com/abharathkumarr/insect-id-runner/pkg/runner"
	"github.com/abharathkumarr/insect-id-runner/pkg/sequencer"
	"github.com/abharathkumarr/insect-id-runner/pkg/testdata"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run identification test cases on a connected device",
	Description: `Run the test cases from the cases CSV against the app on a connected
Android device. Each case uploads an image, waits for the scan to
finish, scrapes the result screen and classifies the outcome. A JSON
report is written at the end, including after Ctrl+C.

Examples:
  insect-id-runner run
  insect-id-runner run --test-id TC002
  insect-id-runner run --manual
  insect-id-runner run --rules custom_rules.js`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "test-id",
			Usage: "Run only the case with this ID",
		},
		&cli.BoolFlag{
			Name:  "manual",
			Usage: "Manual mode: you pick the image, the runner watches and scores",
		},
		&cli.StringFlag{
			Name:  "rules",
			Usage: "JavaScript classification rules file (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "no-screenshots",
			Usage: "Skip before/after screenshots",
		},
		&cli.StringFlag{
			Name:  "apk",
			Usage: "Install this APK on the device before running",
		},
	},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	log, err := logger.New(cfg.Paths.LogFile)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize logger: %v", err), 1)
	}
	defer log.Close()
	log.SetVerbose(c.Bool("verbose"))
	log.Info("=== Test run started ===")

	mgr := testdata.NewManager(cfg, log)
	cases, err := mgr.Load()
	if err != nil {
		log.Error("Failed to load test cases: %v", err)
		return cli.Exit(fmt.Sprintf("failed to load test cases: %v", err), 1)
	}

	if id := c.String("test-id"); id != "" {
		cases = filterByID(cases, id)
		if len(cases) == 0 {
			return cli.Exit(fmt.Sprintf("test case not found: %s", id), 1)
		}
	}
	if len(cases) == 0 {
		return cli.Exit("no test cases to run", 1)
	}
	log.Info("Loaded %d test case(s)", len(cases))

	cls := classifier.New(cfg.Keywords)
	rulesPath := c.String("rules")
	if rulesPath == "" {
		rulesPath = cfg.RuleFile
	}
	if rulesPath != "" {
		engine, err := classifier.LoadRules(rulesPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to load rules %s: %v", rulesPath, err), 1)
		}
		cls.SetMatcher(engine)
		log.Info("Loaded classification rules: %s", rulesPath)
	}

	sess, cleanup, err := openSession(cfg, c.String("device"), log)
	if err != nil {
		log.Error("Session setup failed: %v", err)
		return cli.Exit(err.Error(), 1)
	}
	defer cleanup()

	if apk := c.String("apk"); apk != "" {
		if err := sess.Device.Install(apk); err != nil {
			log.Error("Failed to install %s: %v", apk, err)
			return cli.Exit(fmt.Sprintf("failed to install %s: %v", apk, err), 1)
		}
		log.Info("Installed APK: %s", apk)
	}

	seq := sequencer.New(sess.Client, sess.Device, cfg, log)
	run := runner.New(cfg, seq, mgr, cls, log)
	run.SetManual(c.Bool("manual"))
	if !c.Bool("no-screenshots") {
		run.SetScreenshotter(sess.Client)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.Bool("manual") && !seq.EnsureAppRunning() {
		log.Error("App is not running and could not be launched")
		return cli.Exit("app is not running and could not be launched", 1)
	}

	if err := run.Setup(); err != nil {
		log.Error("Setup failed: %v", err)
		return cli.Exit(fmt.Sprintf("setup failed: %v", err), 1)
	}

	results, err := run.RunAll(ctx, cases)
	if err != nil {
		if errors.Is(err, core.ErrNoTestCases) {
			return cli.Exit("no test cases to run", 1)
		}
		log.Error("Run failed: %v", err)
		return cli.Exit(fmt.Sprintf("run failed: %v", err), 1)
	}

	for _, result := range results {
		report.PrintResult(os.Stdout, result)
	}

	rep := report.Build(results)
	rep.PrintSummary(os.Stdout)

	path, err := rep.Write(cfg.Paths.ReportsDir)
	if err != nil {
		log.Error("Failed to write report: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: failed to write report: %v\n", err)
	} else {
		log.Info("Report saved: %s", path)
		fmt.Printf("\nReport saved: %s\n", path)
	}

	if run.State() == core.RunInterrupted {
		log.Info("=== Test run interrupted ===")
	} else {
		log.Info("=== Test run completed ===")
	}
	// An interrupted run still exits 0: partial results were reported
	return nil
}

// filterByID keeps only the case matching the given ID.
func filterByID(cases []core.TestCase, id string) []core.TestCase {
	for _, tc := range cases {
		if tc.ID == id {
			return []core.TestCase{tc}
		}
	}
	return nil
}
