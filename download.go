package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// errFetchSkipped marks a non-success HTTP response in URL mode. The URL is
// skipped and processing continues with the rest of the list.
var errFetchSkipped = errors.New("fetch skipped")

// download retrieves a remote file over the listing source and saves it at
// local.
func (m *Mirror) download(remote, local string) error {
	r, err := m.Source.Fetch(remote)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return out.Close()
}

// download retrieves a firmware package over HTTP and saves it at local.
// Non-200 responses yield errFetchSkipped.
func (m *URLMirror) download(url, local string) error {
	resp, err := m.Client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d - %s", errFetchSkipped, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	return out.Close()
}
