package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config holds all application configuration settings.
type Config struct {
	// Manifest is the path of the persisted firmware version manifest.
	Manifest string `yaml:"manifest"`

	// MirrorDir is the local root the remote tree is mirrored under.
	MirrorDir string `yaml:"mirrorDir"`

	// Scrub truncates firmware payload files after processing.
	Scrub bool `yaml:"scrub"`

	FTP  FTPConfig `yaml:"ftp"`
	URLs URLConfig `yaml:"urls"`
	Git  GitConfig `yaml:"git"`
}

// FTPConfig describes the listing-driven firmware source.
type FTPConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Root is the remote directory the traversal starts at.
	Root string `yaml:"root"`

	// BaseURL is the public URL prefix recorded in the manifest for
	// downloads, e.g. "ftp://ftp.hp.com".
	BaseURL string `yaml:"baseUrl"`
}

// URLConfig describes the URL-list-driven firmware source: either a local
// file with one URL per line, or a JSON catalog feed filtered by a JSONPath
// expression.
type URLConfig struct {
	File            string `yaml:"file"`
	CatalogURL      string `yaml:"catalogUrl"`
	CatalogJSONPath string `yaml:"catalogJsonPath"`
}

// GitConfig controls the optional source-control handling of the manifest.
type GitConfig struct {
	Enabled bool   `yaml:"enabled"`
	Remote  string `yaml:"remote"`
}

// LoadConfig reads the configuration from a reader into `cfg`.
func LoadConfig(r io.Reader, cfg *Config) error {
	if r == nil {
		return nil
	}
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	cfg.applyDefaults()
	return nil
}

// LoadConfigFile reads the configuration from a file into `cfg`.
func LoadConfigFile(name string, cfg *Config) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadConfig(file, cfg)
}

func (cfg *Config) applyDefaults() {
	if cfg.Manifest == "" {
		cfg.Manifest = "firmware.conf"
	}
	if cfg.MirrorDir == "" {
		cfg.MirrorDir = "."
	}
	if cfg.Git.Remote == "" {
		cfg.Git.Remote = "origin"
	}
	if cfg.URLs.CatalogURL != "" && cfg.URLs.CatalogJSONPath == "" {
		cfg.URLs.CatalogJSONPath = "$[*].url"
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		path = filepath.Join("${HOME}", path[1:])
	}
	return os.ExpandEnv(path)
}
