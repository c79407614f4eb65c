package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvUserDirOverride, dir)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PreserveColor || cfg.NoLog {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvUserDirOverride, dir)
	content := "preserve_color: true\nlog_dir: /tmp/tokf-logs\ndisabled_filters:\n  - git/status\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.PreserveColor || cfg.LogDir != "/tmp/tokf-logs" || len(cfg.DisabledFilters) != 1 {
		t.Fatalf("got %+v", cfg)
	}
}

func TestUserDirOverride(t *testing.T) {
	t.Setenv(EnvUserDirOverride, "/custom/path")
	dir, err := UserDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/custom/path" {
		t.Fatalf("got %q", dir)
	}
}

func TestPreserveColorActiveFromEnv(t *testing.T) {
	t.Setenv(EnvPreserveColor, "1")
	cfg := &Config{}
	if !cfg.PreserveColorActive() {
		t.Fatal("expected env var to force preserve-color")
	}
}
