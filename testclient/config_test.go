package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJSONConfigSuccessClient(t *testing.T) {
	path := writeTempClientConfig(t, `{"remoteaddr":"127.0.0.1:50036","schema":"gov.nasa.race.air.SimpleTrackProtocol","interval":-1,"send":true,"retry":2000}`)

	var cfg Config
	if err := parseJSONConfig(&cfg, path); err != nil {
		t.Fatalf("parseJSONConfig returned error: %v", err)
	}

	if cfg.RemoteAddr != "127.0.0.1:50036" || cfg.Schema != "gov.nasa.race.air.SimpleTrackProtocol" {
		t.Fatalf("unexpected remoteaddr/schema: %+v", cfg)
	}
	if cfg.Interval != -1 || !cfg.Send || cfg.Retry != 2000 {
		t.Fatalf("unexpected field values: %+v", cfg)
	}
}

func TestParseJSONConfigMissingFileClient(t *testing.T) {
	var cfg Config
	missing := filepath.Join(t.TempDir(), "missing.json")
	if err := parseJSONConfig(&cfg, missing); err == nil {
		t.Fatalf("parseJSONConfig expected error for missing file")
	}
}

func writeTempClientConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}
