package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// versionDirPrefix marks remote directories that hold a single firmware
// release; such directories are terminal leaves of the traversal.
const versionDirPrefix = "v"

// recorder is the shared decode → extract → record pipeline both mirror
// modes feed firmware packages through.
type recorder struct {
	Manifest *Manifest

	// Scrub truncates all files of a release directory after processing,
	// keeping the mirror's disk footprint small while the file names still
	// mark the release as present.
	Scrub bool

	// OnNewVersion, if set, is called whenever a product line's latest
	// pointer advances.
	OnNewVersion func(productLine, version string)
}

// processDir runs the pipeline on the firmware package in dir. dirURL is
// the public location of that directory, recorded in the manifest. Failures
// are contained to this one package: corrupt packages are logged and
// skipped, they never abort the caller's traversal.
func (r *recorder) processDir(dir, dirURL string) {
	if err := r.process(dir, dirURL); err != nil {
		var corrupt *CorruptPackageError
		if errors.As(err, &corrupt) {
			slog.Error("skipping corrupt package", "error", corrupt)
			return
		}
		slog.Error("failed to process package", "dir", dir, "error", err)
	}
}

func (r *recorder) process(dir, dirURL string) error {
	pkg, err := findByExt(dir, packageExt)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(pkg)
	if err != nil {
		return err
	}
	if err := DecodePackage(pkg, data, dir); err != nil {
		return err
	}

	image, err := findByExt(dir, firmwareExt)
	if err != nil {
		return err
	}
	if info, ok := ExtractVersion(filepath.Base(image)); ok {
		url := strings.TrimSuffix(dirURL, "/") + "/" + filepath.Base(pkg)
		file := strings.ToLower(filepath.Base(image))
		if r.Manifest.Record(info.ProductLine, info.Version, url, file) && r.OnNewVersion != nil {
			r.OnNewVersion(info.ProductLine, info.Version)
		}
	} else {
		slog.Debug("skipping internal build", "file", image)
	}

	if r.Scrub {
		return scrubDir(dir)
	}
	return nil
}

// Mirror walks a remote firmware repository via directory listings and
// maintains a matching local tree plus the version manifest.
type Mirror struct {
	recorder

	Source remoteSource

	// BaseURL is the public URL prefix remote paths are appended to when
	// recording download locations, e.g. "ftp://ftp.hp.com".
	BaseURL string
}

// Run mirrors the remote tree rooted at remotePath into localPath. On
// failure the manifest is still saved, keeping everything recorded before
// the failing subtree.
func (m *Mirror) Run(remotePath, localPath string) error {
	if err := m.visit(remotePath, localPath); err != nil {
		if saveErr := m.Manifest.Save(); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		return err
	}
	return nil
}

// visit mirrors one remote directory. The manifest is saved after the
// directory has been fully processed, so an interrupted run keeps
// everything recorded up to that point.
func (m *Mirror) visit(remotePath, localPath string) error {
	if err := os.MkdirAll(localPath, os.ModePerm); err != nil {
		return err
	}
	entries, err := m.Source.List(remotePath)
	if err != nil {
		return fmt.Errorf("list %s: %w", remotePath, err)
	}

	for _, entry := range entries {
		remote := path.Join(remotePath, entry.name)
		local := filepath.Join(localPath, entry.name)

		if entry.isDir {
			if dirExists(local) && strings.HasPrefix(entry.name, versionDirPrefix) {
				// Release already mirrored: record it from the local copy
				// without listing the remote side again.
				m.processDir(local, m.BaseURL+remote)
				continue
			}
			if err := m.visit(remote, local); err != nil {
				return err
			}
			continue
		}

		if !fileExists(local) {
			if err := m.download(remote, local); err != nil {
				return fmt.Errorf("fetch %s: %w", remote, err)
			}
			slog.Info("downloaded", "path", remote)
		}
		if strings.EqualFold(filepath.Ext(entry.name), packageExt) {
			m.processDir(localPath, m.BaseURL+remotePath)
		}
	}

	return m.Manifest.Save()
}

// scrubDir truncates every regular file in dir to zero length. The names
// stay on disk, so the traversal still treats the release as mirrored.
func scrubDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Truncate(filepath.Join(dir, entry.Name()), 0); err != nil {
			return err
		}
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
