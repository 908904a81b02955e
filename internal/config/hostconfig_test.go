package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scorelang/scorec/internal/config"
)

func TestLoadHostConfigMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := config.LoadHostConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing config file: %v", err)
	}
	if cfg != (config.HostConfig{}) {
		t.Errorf("cfg = %+v, want zero value", cfg)
	}
}

func TestLoadHostConfigPopulatesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	contents := "moviepath: /movies/demo\ndirseparator: \"\\\\\"\nplatform: win\nrandomseed: 7\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := config.LoadHostConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := config.HostConfig{MoviePath: "/movies/demo", DirSeparator: `\`, Platform: "win", RandomSeed: 7}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadHostConfigMalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("moviepath: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := config.LoadHostConfig(path)
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
