package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_url "net/url"
	"os"
	"path/filepath"
	"strings"
)

// URLMirror fetches firmware packages from a flat list of download URLs,
// grouping them locally by the product/version path segments of each URL.
// It has no recursive structure; each URL is one bounded unit of work.
type URLMirror struct {
	recorder

	Client *http.Client

	// Root is the local mirror directory URLs are materialized under.
	Root string
}

// Run processes every URL and saves the manifest once at the end. A URL
// that cannot be processed is logged and skipped, never fatal to the rest
// of the list.
func (m *URLMirror) Run(urls []string) error {
	for _, raw := range urls {
		if err := m.syncURL(raw); err != nil {
			slog.Error("failed to sync url", "url", raw, "error", err)
		}
	}
	return m.Manifest.Save()
}

func (m *URLMirror) syncURL(raw string) error {
	u, err := _url.Parse(raw)
	if err != nil {
		return err
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 {
		return fmt.Errorf("url path too short for product/version grouping: %s", u.Path)
	}
	fileName := segments[len(segments)-1]
	dir := filepath.Join(m.Root, segments[len(segments)-3], segments[len(segments)-2])

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	local := filepath.Join(dir, fileName)
	if !fileExists(local) {
		if err := m.download(raw, local); err != nil {
			if errors.Is(err, errFetchSkipped) {
				slog.Debug("skipping url", "url", raw, "reason", err)
				return nil
			}
			return err
		}
		slog.Info("downloaded", "url", raw)
	}

	if _, err := findByExt(dir, packageExt); err == nil {
		m.processDir(dir, strings.TrimSuffix(raw, "/"+fileName))
	}
	return nil
}
