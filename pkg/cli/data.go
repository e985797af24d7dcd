package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
	"github.com/abharathkumarr/insect-id-runner/pkg/testdata"
)

// defaultEffects are the augmentation variants generated alongside an
// original image. The filters themselves are produced by a separate
// image pipeline; here they only name expected files.
var defaultEffects = []string{
	"rain", "snow", "fog", "night", "sunny", "autumn", "motion_blur",
}

var listImagesCommand = &cli.Command{
	Name:  "list-images",
	Usage: "List available sample images",
	Description: `List the sample images found in the original and augmented
directories configured in config.yaml.`,
	Action: listImagesAction,
}

var generateCasesCommand = &cli.Command{
	Name:  "generate-cases",
	Usage: "Generate test cases from the original images directory",
	Description: `Scan the original images directory and write a test case per image
to the cases CSV. The expected species is inferred from the file name
(darner/skimmer), falling back to the generic species.

Examples:
  insect-id-runner generate-cases
  insect-id-runner generate-cases --dry-run`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the cases without writing the CSV",
		},
	},
	Action: generateCasesAction,
}

var generateAugmentedCommand = &cli.Command{
	Name:  "generate-augmented",
	Usage: "Add augmented-image test cases for existing originals",
	Description: `For every original image whose name contains the configured genus
term, add one case per augmentation effect. Augmented cases get IDs
like TC001_AUG01 and reference <stem>_<effect>.png files.

Examples:
  insect-id-runner generate-augmented
  insect-id-runner generate-augmented --effects rain,fog,night`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "effects",
			Usage: "Augmentation effects to generate cases for",
		},
	},
	Action: generateAugmentedAction,
}

func newManager(c *cli.Context) (*testdata.Manager, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	log := logger.Nop()
	if c.Bool("verbose") {
		fileLog, err := logger.New(cfg.Paths.LogFile)
		if err == nil {
			fileLog.SetVerbose(true)
			log = fileLog
		}
	}
	return testdata.NewManager(cfg, log), cfg, nil
}

func listImagesAction(c *cli.Context) error {
	mgr, _, err := newManager(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, source := range []core.ImageSource{core.ImageOriginal, core.ImageAugmented} {
		images, err := mgr.ListImages(source)
		if err != nil {
			fmt.Printf("%s images: directory not found\n", source)
			continue
		}
		fmt.Printf("%s images (%d):\n", source, len(images))
		for _, img := range images {
			fmt.Printf("  %s\n", img)
		}
	}
	return nil
}

func generateCasesAction(c *cli.Context) error {
	mgr, _, err := newManager(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cases, err := mgr.GenerateFromDir()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to generate cases: %v", err), 1)
	}

	for _, tc := range cases {
		fmt.Printf("  %s: %s (expected: %s)\n", tc.ID, tc.ImageName, tc.ExpectedSpecies)
	}

	if c.Bool("dry-run") {
		fmt.Printf("Dry run: %d case(s), nothing written\n", len(cases))
		return nil
	}

	if err := mgr.Save(cases); err != nil {
		return cli.Exit(fmt.Sprintf("failed to save cases: %v", err), 1)
	}
	fmt.Printf("Wrote %d test case(s)\n", len(cases))
	return nil
}

func generateAugmentedAction(c *cli.Context) error {
	mgr, cfg, err := newManager(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	effects := c.StringSlice("effects")
	if len(effects) == 0 {
		effects = defaultEffects
	}

	images, err := mgr.ListImages(core.ImageOriginal)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to list images: %v", err), 1)
	}

	added := 0
	for _, img := range images {
		if !strings.Contains(strings.ToLower(img), cfg.Keywords.Genus) {
			continue
		}
		if err := mgr.AddAugmentedCases(img, effects); err != nil {
			return cli.Exit(fmt.Sprintf("failed to add augmented cases for %s: %v", img, err), 1)
		}
		added += len(effects)
	}

	fmt.Printf("Added %d augmented test case(s)\n", added)
	return nil
}
