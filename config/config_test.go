package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Poll.Workers != 4 {
		t.Errorf("workers = %d", cfg.Poll.Workers)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetmon.yml")
	body := "listen: \":9000\"\npoll:\n  schedule: \"@every 5m\"\n  workers: 8\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Poll.Schedule != "@every 5m" {
		t.Errorf("schedule = %q", cfg.Poll.Schedule)
	}
	if cfg.Poll.Workers != 8 {
		t.Errorf("workers = %d", cfg.Poll.Workers)
	}
	// unset keys keep defaults
	if cfg.Poll.TimeoutSec != 240 {
		t.Errorf("timeout = %d", cfg.Poll.TimeoutSec)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FLEETMON_LISTEN", ":7777")
	t.Setenv("FLEETMON_POLL_WORKERS", "2")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7777" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Poll.Workers != 2 {
		t.Errorf("workers = %d", cfg.Poll.Workers)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
