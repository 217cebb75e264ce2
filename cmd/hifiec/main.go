package main

import (
	"io"
	"log"
	"os"

	"github.com/bodgit/hifiec"
	"github.com/urfave/cli/v2"
)

const defaultOutput = "extracted_parts"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newTool(c *cli.Context) (*hifiec.HiFiEC, func(), error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	var db *hifiec.ResourceDB
	closer := func() {}
	if file := c.String("db"); file != "" {
		var err error
		if db, err = hifiec.NewResourceDB(file); err != nil {
			return nil, nil, err
		}
		closer = func() { db.Close() }
	}

	return hifiec.New(db, logger), closer, nil
}

func config(c *cli.Context) hifiec.Config {
	return hifiec.Config{
		OutputDir:    c.String("output"),
		ManifestPath: c.String("manifest"),
		Previews:     c.Bool("previews"),
		Workers:      c.Int("workers"),
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "hifiec"
	app.Usage = "HIFIEC20 firmware image extraction utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"HIFIEC_DB"},
			Usage:   "path to resource catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	outputFlag := &cli.StringFlag{
		Name:  "output",
		Value: defaultOutput,
		Usage: "output directory",
	}
	manifestFlag := &cli.StringFlag{
		Name:  "manifest",
		Usage: "manifest path, defaults to manifest.json in the output directory",
	}
	previewsFlag := &cli.BoolFlag{
		Name:  "previews",
		Usage: "write GIF thumbnails next to reconstructed images",
	}
	workersFlag := &cli.IntFlag{
		Name:  "workers",
		Usage: "number of concurrent resource workers",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "split",
			Usage:     "Decode the partition table and extract partitions",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{outputFlag},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, closer, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.Split(c.Args().First(), c.String("output")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "resources",
			Usage:     "Recover resources from an extracted filesystem partition",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{outputFlag, manifestFlag, previewsFlag, workersFlag},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, closer, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.Resources(c.Args().First(), config(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "extract",
			Usage:     "Split the image and recover all resources in one run",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{outputFlag, manifestFlag, previewsFlag, workersFlag},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, closer, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.Extract(c.Args().First(), config(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
