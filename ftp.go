package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

// remoteEntry is one entry of a remote directory listing.
type remoteEntry struct {
	name  string
	isDir bool
}

// remoteSource lists and fetches files from the mirrored firmware
// repository.
type remoteSource interface {
	// List returns the entries of the remote directory at path, with the
	// "." and ".." entries filtered out.
	List(path string) ([]remoteEntry, error)
	// Fetch opens the remote file at path for reading.
	Fetch(path string) (io.ReadCloser, error)
}

type ftpSource struct {
	conn *ftp.ServerConn
}

// dialFTP connects and logs in to the firmware repository's FTP server.
// Empty credentials default to anonymous access.
func dialFTP(addr, user, pass string) (*ftpSource, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	if user == "" {
		user, pass = "anonymous", "anonymous"
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login: %w", err)
	}

	return &ftpSource{conn: conn}, nil
}

func (s *ftpSource) List(path string) ([]remoteEntry, error) {
	entries, err := s.conn.List(path)
	if err != nil {
		return nil, err
	}

	out := make([]remoteEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, remoteEntry{
			name:  e.Name,
			isDir: e.Type == ftp.EntryTypeFolder,
		})
	}
	return out, nil
}

func (s *ftpSource) Fetch(path string) (io.ReadCloser, error) {
	return s.conn.Retr(path)
}

func (s *ftpSource) Close() error {
	return s.conn.Quit()
}
