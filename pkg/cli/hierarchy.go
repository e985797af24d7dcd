package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Dump the current UI tree of the connected device",
	Description: `Print the page source XML of whatever is on screen. Useful for
finding element attributes when the app changes its layout.

Examples:
  insect-id-runner hierarchy
  insect-id-runner hierarchy --output screen.xml
  insect-id-runner hierarchy --device emulator-5554`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the XML to a file instead of stdout",
		},
	},
	Action: hierarchyAction,
}

func hierarchyAction(c *cli.Context) error {
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

	sess, cleanup, err := openSession(cfg, c.String("device"), log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer cleanup()

	source, err := sess.Client.Source()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to get page source: %v", err), 1)
	}

	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write %s: %v", path, err), 1)
		}
		fmt.Printf("Hierarchy written to %s\n", path)
		return nil
	}

	fmt.Println(source)
	return nil
}
