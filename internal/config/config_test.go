package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IsConfigured() {
		t.Error("fresh config must not report a configured server")
	}
	if cfg.Poll.IntervalSeconds != 1 {
		t.Errorf("poll interval = %d, expected 1", cfg.Poll.IntervalSeconds)
	}
	if cfg.Player.Command != "mpv" {
		t.Errorf("player command = %q, expected mpv", cfg.Player.Command)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cache.Dir == "" {
		t.Fatal("cache dir must have a default")
	}
	if filepath.Base(cfg.Cache.Dir) != "cache" {
		t.Errorf("cache dir = %q, expected a cache subdirectory", cfg.Cache.Dir)
	}
	if filepath.Dir(cfg.Cache.Dir) != defaultDataPath() {
		t.Errorf("cache dir = %q, expected it under %q", cfg.Cache.Dir, defaultDataPath())
	}
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "http://localhost:8000"
	if !cfg.IsConfigured() {
		t.Error("config with a server URL must report configured")
	}
}
