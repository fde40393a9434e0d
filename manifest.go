package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"
)

const (
	keyVersion = "version"
	keyURL     = "url"
	keyFile    = "file"
)

// Manifest is the persisted record of known firmware versions. Sections
// keyed "<productLine> <version>" are immutable history, written once per
// distinct version; sections keyed "<productLine>" are mutable pointers to
// the newest version seen for that product line.
type Manifest struct {
	path string
	file *ini.File
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest, not an error.
func LoadManifest(path string) (*Manifest, error) {
	f, err := ini.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		f = ini.Empty()
	}
	return &Manifest{path: path, file: f}, nil
}

// Path returns the location the manifest is saved to.
func (m *Manifest) Path() string { return m.path }

// Record notes a firmware version. The per-version section is created on
// first sight and never mutated afterwards. The product's latest pointer is
// overwritten only when version is strictly newer than what is recorded;
// Record returns true when that happened.
func (m *Manifest) Record(productLine, version, url, fileName string) bool {
	versionKey := productLine + " " + version
	if _, err := m.file.GetSection(versionKey); err != nil {
		sec, _ := m.file.NewSection(versionKey)
		sec.Key(keyVersion).SetValue(version)
		sec.Key(keyURL).SetValue(url)
		sec.Key(keyFile).SetValue(fileName)
	}

	latest := m.file.Section(productLine)
	current := latest.Key(keyVersion).String()
	if current != "" && versionOrderSuspect(version, current) {
		slog.Warn("recorded latest version ordering disagrees with semantic ordering",
			"product", productLine, "recorded", current, "seen", version)
	}
	if current != "" && !versionNewer(version, current) {
		return false
	}

	latest.Key(keyVersion).SetValue(version)
	latest.Key(keyURL).SetValue(url)
	latest.Key(keyFile).SetValue(fileName)
	return true
}

// Latest returns the recorded newest version attributes for a product line.
func (m *Manifest) Latest(productLine string) (version, url, file string, ok bool) {
	sec, err := m.file.GetSection(productLine)
	if err != nil {
		return "", "", "", false
	}
	return sec.Key(keyVersion).String(), sec.Key(keyURL).String(), sec.Key(keyFile).String(), true
}

// Version returns the attributes of one per-version section.
func (m *Manifest) Version(productLine, version string) (url, file string, ok bool) {
	sec, err := m.file.GetSection(productLine + " " + version)
	if err != nil {
		return "", "", false
	}
	return sec.Key(keyURL).String(), sec.Key(keyFile).String(), true
}

// Save writes the manifest with sections sorted by key, so repeated saves
// of the same state are byte-identical and downstream diffs stay readable.
// The file is replaced atomically via a rename.
func (m *Manifest) Save() error {
	data, err := m.serialize()
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	name := filepath.Base(m.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.new", name))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manifest) serialize() ([]byte, error) {
	names := m.file.SectionStrings()
	sort.Strings(names)

	out := ini.Empty()
	for _, name := range names {
		src, err := m.file.GetSection(name)
		if err != nil || len(src.Keys()) == 0 {
			continue
		}
		dst, err := out.NewSection(name)
		if err != nil {
			return nil, err
		}
		for _, key := range src.Keys() {
			dst.Key(key.Name()).SetValue(key.Value())
		}
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
