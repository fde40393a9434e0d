package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// packageExt is the extension of the vendor's self-extracting firmware
	// packages: a shell script preamble followed by a gzip'd tar archive.
	packageExt = ".scexe"

	// firmwareExt is the extension of the firmware image inside a package.
	firmwareExt = ".bin"

	skipMarker = "_SKIP="
)

var gzipMagic = []byte{0x1f, 0x8b}

// CorruptPackageError reports a self-extracting package whose embedded
// archive could not be located or is not a gzip stream.
type CorruptPackageError struct {
	File   string
	Reason string
}

func (e *CorruptPackageError) Error() string {
	return fmt.Sprintf("corrupt package %s: %s", e.File, e.Reason)
}

// DecodePackage unpacks the archive embedded in the self-extracting package
// data into dir, preserving the archive's relative paths. name is the
// package's filename, used in error messages. Decoding is a no-op when a
// firmware image is already present in dir.
func DecodePackage(name string, data []byte, dir string) error {
	if _, err := findByExt(dir, firmwareExt); err == nil {
		return nil
	}

	payload, err := packagePayload(name, data)
	if err != nil {
		return err
	}
	return untar(payload, dir)
}

// packagePayload locates the embedded archive. The script preamble carries
// a line "_SKIP=<N>" where N is the 1-based line number at which the binary
// payload starts.
func packagePayload(name string, data []byte) ([]byte, error) {
	idx := bytes.Index(data, []byte(skipMarker))
	if idx < 0 {
		return nil, &CorruptPackageError{File: name, Reason: "missing " + skipMarker + " marker"}
	}

	var skip, digits int
	for _, c := range data[idx+len(skipMarker):] {
		if c < '0' || c > '9' {
			break
		}
		skip = skip*10 + int(c-'0')
		digits++
	}
	if digits == 0 || skip < 1 {
		return nil, &CorruptPackageError{File: name, Reason: "malformed " + skipMarker + " marker"}
	}

	// Drop the first skip-1 lines; the payload is everything from line
	// `skip` onward.
	parts := bytes.SplitN(data, []byte("\n"), skip)
	payload := parts[len(parts)-1]

	if !bytes.HasPrefix(payload, gzipMagic) {
		return nil, &CorruptPackageError{File: name, Reason: "embedded archive is not gzip compressed"}
	}
	return payload, nil
}

func untar(payload []byte, dir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dir, filepath.FromSlash(header.Name))
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
}

func writeFile(name string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// findByExt returns the path of the first file in dir with the given
// extension, or an error when the directory holds none.
func findByExt(dir string, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no %s file in %s", ext, dir)
}
