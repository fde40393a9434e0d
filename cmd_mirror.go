package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"
)

func newMirrorCmd() *cli.Command {
	cfg := mirrorCmd{}

	fs := flag.NewFlagSet("fwmirror mirror", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "mirror",
		ShortHelp:  "Mirror a firmware repository via FTP directory listings.",
		ShortUsage: "fwmirror mirror [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type mirrorCmd struct {
	runOpts
}

func (c *mirrorCmd) RegisterFlags(fs *flag.FlagSet) {
	c.runOpts.RegisterFlags(fs)
}

func (c *mirrorCmd) Exec(ctx context.Context, args []string) (err error) {
	c.initLogging()

	defer func() {
		if err != nil && c.logFile != os.Stderr {
			err = fmt.Errorf("%w\nSee %s for details", err, c.logFile.Name())
		}
	}()

	cfg, manifest, store, err := c.setup()
	if err != nil {
		return err
	}

	if cfg.FTP.Addr == "" {
		return fmt.Errorf("no ftp source configured")
	}

	source, err := dialFTP(cfg.FTP.Addr, cfg.FTP.User, cfg.FTP.Password)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			slog.Error("failed to close ftp connection", "error", err)
		}
	}()

	mirror := &Mirror{
		recorder: c.newRecorder(cfg, manifest),
		Source:   source,
		BaseURL:  cfg.FTP.BaseURL,
	}

	spinner, _ := pterm.DefaultSpinner.Start("Mirroring ", cfg.FTP.Addr)
	if err := mirror.Run(cfg.FTP.Root, expandPath(cfg.MirrorDir)); err != nil {
		spinner.Fail("Mirroring failed: ", err)
		return err
	}
	spinner.Success()

	return c.finish(cfg, store)
}
