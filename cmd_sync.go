package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"github.com/Aleks-VV/fwmirror/internal/metaerr"
)

func newSyncCmd() *cli.Command {
	cfg := syncCmd{}

	fs := flag.NewFlagSet("fwmirror sync", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "sync",
		ShortHelp:  "Fetch firmware packages from a list of download URLs.",
		ShortUsage: "fwmirror sync [OPTION]... [URL]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type syncCmd struct {
	runOpts
}

func (c *syncCmd) RegisterFlags(fs *flag.FlagSet) {
	c.runOpts.RegisterFlags(fs)
}

func (c *syncCmd) Exec(ctx context.Context, args []string) (err error) {
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

	client := defaultClient()

	urls, err := c.collectURLs(cfg, client, args)
	if err != nil {
		slog.With("error", err).
			With(metaerr.GetMetadata(err)...).
			Error("failed to collect urls")
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no urls to sync")
	}

	mirror := &URLMirror{
		recorder: c.newRecorder(cfg, manifest),
		Client:   client,
		Root:     expandPath(cfg.MirrorDir),
	}

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Syncing %d urls", len(urls)))
	if err := mirror.Run(urls); err != nil {
		spinner.Fail("Sync failed: ", err)
		return err
	}
	spinner.Success()

	return c.finish(cfg, store)
}

// collectURLs gathers the download URLs to process: command line arguments
// first, then the configured URL file, then the JSON catalog feed.
func (c *syncCmd) collectURLs(cfg *Config, client *http.Client, args []string) ([]string, error) {
	switch {
	case len(args) > 0:
		return args, nil
	case cfg.URLs.File != "":
		return loadURLFile(expandPath(cfg.URLs.File))
	case cfg.URLs.CatalogURL != "":
		return fetchCatalogURLs(client, cfg.URLs.CatalogURL, cfg.URLs.CatalogJSONPath)
	}
	return nil, fmt.Errorf("no url source configured")
}
