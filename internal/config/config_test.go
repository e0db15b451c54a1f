package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func useTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := useTempHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Difficulty != "easy" {
		t.Fatalf("expected default difficulty easy, got %q", cfg.Difficulty)
	}
	if cfg.CatalogLimit != 1500 {
		t.Fatalf("expected catalog limit 1500, got %d", cfg.CatalogLimit)
	}

	path := filepath.Join(dir, "config", "dexmatch", "config.toml")
	if GetConfigFilePath() != path {
		t.Fatalf("expected config path %s, got %s", path, GetConfigFilePath())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), `difficulty = "easy"`) {
		t.Fatalf("expected difficulty in config file, got %s", data)
	}
}

func TestSetDifficultyPersists(t *testing.T) {
	useTempHome(t)

	if err := SetDifficulty("hard"); err != nil {
		t.Fatalf("set difficulty: %v", err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Difficulty != "hard" {
		t.Fatalf("expected hard, got %q", cfg.Difficulty)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("expected defaults kept, got listen addr %q", cfg.ListenAddr)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	useTempHome(t)
	t.Setenv("DEXMATCH_DIFFICULTY", "medium")
	t.Setenv("DEXMATCH_HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("DEXMATCH_DETAIL_CACHE", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Difficulty != "medium" {
		t.Fatalf("expected env difficulty medium, got %q", cfg.Difficulty)
	}
	if cfg.HTTPTimeout() != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.HTTPTimeout())
	}
	if cfg.DetailCache {
		t.Fatal("expected detail cache disabled by env")
	}
	if cfg.APIBaseURL != Default().APIBaseURL {
		t.Fatalf("expected file value kept for unset env, got %q", cfg.APIBaseURL)
	}
}

func TestApplyEnvError(t *testing.T) {
	cfg := Default()
	t.Setenv("DEXMATCH_CATALOG_LIMIT", "lots")

	err := ApplyEnv(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestHTTPTimeoutFallback(t *testing.T) {
	cfg := &Config{}
	if cfg.HTTPTimeout() != 10*time.Second {
		t.Fatalf("expected 10s fallback, got %s", cfg.HTTPTimeout())
	}
}
