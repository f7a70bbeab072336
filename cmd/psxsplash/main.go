package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bodgit/psxsplash"
	"github.com/bodgit/psxsplash/vram"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
)

const defaultCache = "psxsplash.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newSplash(c *cli.Context) (*psxsplash.Splash, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	var cache *psxsplash.Cache
	if file := c.String("cache"); file != "" {
		file, err := homedir.Expand(file)
		if err != nil {
			return nil, nil, err
		}
		if cache, err = psxsplash.NewCache(file); err != nil {
			return nil, nil, err
		}
	}

	s := psxsplash.New(cache, logger)
	s.Progress = func(p psxsplash.Progress) {
		if p.Total > 0 {
			logger.Printf("%s %d/%d\n", p.Stage, p.Index+1, p.Total)
		} else {
			logger.Println(p.Stage)
		}
	}

	return s, func() {
		if cache != nil {
			cache.Close()
		}
	}, nil
}

// manifestCommand runs fn with the manifest and output arguments common to
// most commands
func manifestCommand(fn func(context.Context, *psxsplash.Splash, *psxsplash.Manifest, string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		s, closer, err := newSplash(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closer()

		m, err := psxsplash.LoadManifest(c.Args().First())
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := fn(ctx, s, m, c.Args().Get(1)); err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "psxsplash"
	app.Usage = "PlayStation scene exporter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "cache",
			EnvVars: []string{"PSXSPLASH_CACHE"},
			Value:   filepath.Join(cwd, defaultCache),
			Usage:   "path to texture cache, empty to disable",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "export",
			Usage:       "Export a scene",
			Description: "Pack textures into VRAM, convert geometry and write the scene file",
			ArgsUsage:   "MANIFEST FILE",
			Action: manifestCommand(func(ctx context.Context, s *psxsplash.Splash, m *psxsplash.Manifest, out string) error {
				return s.Export(ctx, m, out)
			}),
		},
		{
			Name:        "vram",
			Usage:       "Dump packed VRAM",
			Description: "Pack textures and write the raw 1024x512 VRAM image, bottom row first",
			ArgsUsage:   "MANIFEST FILE",
			Action: manifestCommand(func(ctx context.Context, s *psxsplash.Splash, m *psxsplash.Manifest, out string) error {
				return s.DumpVRAM(ctx, m, out)
			}),
		},
		{
			Name:        "watch",
			Usage:       "Export a scene whenever it changes",
			Description: "",
			ArgsUsage:   "MANIFEST FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, closer, err := newSplash(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				if err := s.Watch(ctx, c.Args().First(), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "info",
			Usage:       "Describe a scene file",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				idx, err := psxsplash.Inspect(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				h := idx.Header
				fmt.Printf("Version:     %d\n", h.Version)
				fmt.Printf("Player:      position %v rotation %v height %d\n", h.PlayerPosition, h.PlayerRotation, h.PlayerHeight)
				fmt.Printf("Scene script: %d\n", h.SceneScript)
				for i, r := range idx.Scripts {
					fmt.Printf("Script %d:    %d bytes at %#x\n", i, r.Length, r.Offset)
				}
				for i, r := range idx.Objects {
					fmt.Printf("Object %d:    %d triangles at %#x, script %d, active %t\n", i, r.Triangles, r.Offset, r.Script, r.Active())
				}
				for i, r := range idx.NavMeshes {
					fmt.Printf("Navmesh %d:   %d triangles at %#x\n", i, r.Triangles, r.Offset)
				}
				for i, r := range idx.Atlases {
					fmt.Printf("Atlas %d:     %s at %#x\n", i, vram.Rect{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}, r.Offset)
				}
				for i, r := range idx.Cluts {
					fmt.Printf("CLUT %d:      %d colors at (%d, %d) at %#x\n", i, r.Colors, r.X, r.Y, r.Offset)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
