// Package cli provides the command-line interface for insect-id-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"INSECT_ID_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"serial"},
		Usage:   "Device serial to run on (default: first connected device)",
		EnvVars: []string{"INSECT_ID_DEVICE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Echo log output to stderr",
		EnvVars: []string{"INSECT_ID_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "insect-id-runner",
		Usage:   "UI test runner for the AI Insect Bug Identifier app",
		Version: Version,
		Description: `insect-id-runner drives the insect identification app on a connected
Android device: it uploads sample dragonfly images, waits for the scan,
scrapes the result screen and reports identification accuracy.

Examples:
  insect-id-runner run
  insect-id-runner run --test-id TC001
  insect-id-runner run --manual
  insect-id-runner list-images
  insect-id-runner generate-cases`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			listImagesCommand,
			generateCasesCommand,
			generateAugmentedCommand,
			hierarchyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for a command: an explicit
// --config path wins, otherwise config.yaml in the runner home
// directory is layered over the defaults when it exists.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadFromDir(config.GetHome())
}
