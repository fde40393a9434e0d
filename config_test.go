package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		yaml    string
		want    Config
		wantErr bool
	}{
		{
			testName: "full configuration",
			yaml: `
manifest: firmware.conf
mirrorDir: /srv/mirror
scrub: true
ftp:
  addr: ftp.example.com:21
  root: /fw
  baseUrl: ftp://ftp.example.com
urls:
  file: urls.txt
git:
  enabled: true
  remote: upstream
`,
			want: Config{
				Manifest:  "firmware.conf",
				MirrorDir: "/srv/mirror",
				Scrub:     true,
				FTP: FTPConfig{
					Addr:    "ftp.example.com:21",
					Root:    "/fw",
					BaseURL: "ftp://ftp.example.com",
				},
				URLs: URLConfig{File: "urls.txt"},
				Git:  GitConfig{Enabled: true, Remote: "upstream"},
			},
			wantErr: false,
		},
		{
			testName: "defaults for empty input",
			yaml:     "",
			want: Config{
				Manifest:  "firmware.conf",
				MirrorDir: ".",
				Git:       GitConfig{Remote: "origin"},
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			var cfg Config
			gotErr := LoadConfig(strings.NewReader(tt.yaml), &cfg)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("LoadConfig() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("LoadConfig() succeeded unexpectedly")
			}
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "fwmirror.yaml")
	content := "manifest: /srv/mirror/firmware.conf\n"
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var cfg Config
	if err := LoadConfigFile(name, &cfg); err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	if cfg.Manifest != "/srv/mirror/firmware.conf" {
		t.Errorf("Manifest = %q", cfg.Manifest)
	}
	if cfg.MirrorDir != "." {
		t.Errorf("MirrorDir default not applied: %q", cfg.MirrorDir)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	var cfg Config
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("LoadConfigFile() succeeded on missing file")
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/mirror")

	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		path string
		want string
	}{
		{testName: "tilde", path: "~/fw", want: "/home/mirror/fw"},
		{testName: "env var", path: "${HOME}/fw", want: "/home/mirror/fw"},
		{testName: "plain", path: "/srv/fw", want: "/srv/fw"},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			if got := expandPath(tt.path); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
