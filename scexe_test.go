package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// buildPackage assembles a self-extracting package: a shell preamble whose
// _SKIP marker points at the first payload line, followed by a gzip'd tar
// of the given files.
func buildPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()

	preamble := "#!/bin/sh\n" +
		"_SKIP=5\n" +
		"tail -n +$_SKIP \"$0\" | gunzip -c | tar xf -\n" +
		"exit 0\n"

	var payload bytes.Buffer
	gz := gzip.NewWriter(&payload)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	return append([]byte(preamble), payload.Bytes()...)
}

func TestDecodePackage(t *testing.T) {
	dir := t.TempDir()
	data := buildPackage(t, map[string]string{
		"ILO4_250.bin": "firmware image bytes",
		"CP1234.xml":   "<component/>",
	})

	if err := DecodePackage("ilo4_250.scexe", data, dir); err != nil {
		t.Fatalf("DecodePackage() failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "ILO4_250.bin"))
	if err != nil {
		t.Fatalf("extracted image missing: %v", err)
	}
	if string(got) != "firmware image bytes" {
		t.Errorf("extracted image content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "CP1234.xml")); err != nil {
		t.Errorf("extracted member missing: %v", err)
	}
}

func TestDecodePackageIdempotent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ILO4_250.bin"), []byte("already extracted"), 0644); err != nil {
		t.Fatal(err)
	}

	// Garbage input must not matter once the image is present.
	if err := DecodePackage("ilo4_250.scexe", []byte("not a package"), dir); err != nil {
		t.Fatalf("DecodePackage() failed on already-extracted dir: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "ILO4_250.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "already extracted" {
		t.Errorf("existing image was overwritten: %q", got)
	}
}

func TestDecodePackageCorrupt(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		data []byte
	}{
		{
			testName: "missing marker",
			data:     []byte("#!/bin/sh\nexit 0\n"),
		},
		{
			testName: "non numeric marker",
			data:     []byte("#!/bin/sh\n_SKIP=abc\nexit 0\n"),
		},
		{
			testName: "zero marker",
			data:     []byte("#!/bin/sh\n_SKIP=0\nexit 0\n"),
		},
		{
			testName: "payload without gzip magic",
			data:     []byte("#!/bin/sh\n_SKIP=3\nnot gzip data"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			dir := t.TempDir()

			err := DecodePackage("broken.scexe", tt.data, dir)

			var corrupt *CorruptPackageError
			if !errors.As(err, &corrupt) {
				t.Fatalf("DecodePackage() error = %v, want CorruptPackageError", err)
			}
			if corrupt.File != "broken.scexe" {
				t.Errorf("CorruptPackageError.File = %q, must name the source file", corrupt.File)
			}

			entries, readErr := os.ReadDir(dir)
			if readErr != nil {
				t.Fatal(readErr)
			}
			if len(entries) != 0 {
				t.Errorf("DecodePackage() wrote files despite corruption: %v", entries)
			}
		})
	}
}

func TestFindByExt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"readme.txt", "ILO4_250.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := findByExt(dir, firmwareExt)
	if err != nil {
		t.Fatalf("findByExt() failed: %v", err)
	}
	if filepath.Base(got) != "ILO4_250.bin" {
		t.Errorf("findByExt() = %q", got)
	}

	if _, err := findByExt(dir, packageExt); err == nil {
		t.Error("findByExt() must fail when no file matches")
	}
}
