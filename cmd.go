package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"
)

// execute configures the root command and then runs it with the given context.
func execute(ctx context.Context) error {
	cmd := configure()
	opts := []cli.ParseOption{
		cli.WithEnvVarPrefix("FWMIRROR"),
	}
	args := os.Args[1:]

	if err := cmd.Parse(args, opts...); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse arguments: %w", err)
	}

	return cmd.Run(ctx)
}

// configure returns the root command.
func configure() *cli.Command {
	var cfg rootCmd

	fs := flag.NewFlagSet("fwmirror", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "fwmirror",
		ShortHelp:  "Mirror firmware repositories and track released versions.",
		ShortUsage: "fwmirror [COMMAND] [OPTION]... [ARG]...",
		Subcommands: []*cli.Command{
			cli.DefaultVersionCommand(os.Stdout),
			newMirrorCmd(),
			newSyncCmd(),
		},
		Flags: fs,
		Exec:  cfg.Exec,
	}
}

func initLogging(w io.Writer, level string, format string) {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, &opts)
	case "json":
		handler = slog.NewJSONHandler(w, &opts)
	default:
		handler = slog.NewTextHandler(w, &opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

type rootCmd struct {
	ConfigFile string

	logFile   *os.File
	logLevel  string
	logFormat string
	debug     bool
}

func (c *rootCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", ".fwmirror.yaml", "The configuration file.")

	fs.StringVar(&c.logLevel, "log-level", "info", "The log level.")
	fs.StringVar(&c.logFormat, "log-format", "text", "The log format ('text' or 'json').")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug mode.")
}

func (c *rootCmd) Exec(ctx context.Context, args []string) error {
	return flag.ErrHelp
}

func (c *rootCmd) initLogging() {
	if stateDir, err := userStateDir(); err == nil {
		c.logFile, _ = os.OpenFile(filepath.Join(stateDir, "fwmirror.log"), os.O_APPEND|os.O_WRONLY|os.O_CREATE, os.ModePerm)
	}
	if c.logFile == nil {
		c.logFile = os.Stderr
	}

	level := c.logLevel
	if c.debug {
		level = "debug"
	}
	initLogging(c.logFile, level, c.logFormat)
}

func userStateDir() (string, error) {
	xdgStateHome, ok := os.LookupEnv("XDG_STATE_HOME")
	if !ok || xdgStateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	return xdgStateHome, nil
}

// runOpts holds the flags and setup shared by the mirror and sync commands.
type runOpts struct {
	rootCmd

	scrub    bool
	gitReset bool
	discard  bool
}

func (c *runOpts) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.BoolVar(&c.scrub, "scrub", false, "Truncate firmware payload files after processing.")
	fs.BoolVar(&c.gitReset, "git-reset", false, "Fetch and hard-reset the manifest repository before running.")
	fs.BoolVar(&c.discard, "discard", false, "Discard manifest changes after the run.")
}

// setup loads the configuration and manifest and, when source control is in
// play, opens and optionally resets the manifest repository.
func (c *runOpts) setup() (*Config, *Manifest, *gitStore, error) {
	var cfg Config
	if err := LoadConfigFile(c.ConfigFile, &cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	var store *gitStore
	if cfg.Git.Enabled || c.gitReset || c.discard {
		var err error
		store, err = openGitStore(filepath.Dir(expandPath(cfg.Manifest)))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open manifest repository: %w", err)
		}
		if c.gitReset {
			if err := store.Sync(cfg.Git.Remote); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	manifest, err := LoadManifest(expandPath(cfg.Manifest))
	if err != nil {
		return nil, nil, nil, err
	}

	return &cfg, manifest, store, nil
}

func (c *runOpts) newRecorder(cfg *Config, manifest *Manifest) recorder {
	return recorder{
		Manifest: manifest,
		Scrub:    c.scrub || cfg.Scrub,
		OnNewVersion: func(productLine, version string) {
			pterm.Success.Printfln("New %s firmware: %s", productLine, version)
		},
	}
}

// finish reports or discards manifest changes after a run, when the
// manifest lives in a git repository.
func (c *runOpts) finish(cfg *Config, store *gitStore) error {
	if store == nil {
		return nil
	}
	changed, err := store.HasChanges(filepath.Base(cfg.Manifest))
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if c.discard {
		slog.Info("discarding manifest changes")
		return store.Discard()
	}
	pterm.Info.Printfln("Manifest updated: %s", cfg.Manifest)
	return nil
}
