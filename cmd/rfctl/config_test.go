package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/rfctl/internal/config"
	"github.com/danmuck/rfctl/internal/testutil/testlog"
)

func TestLoadExampleConfig(t *testing.T) {
	testlog.Start(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load example config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("example config invalid: %v", err)
	}
	if cfg.Transport != "ook-gpio" {
		t.Fatalf("expected ook-gpio transport, got %q", cfg.Transport)
	}
	if cfg.SysfsGPIO.GPIO != 17 {
		t.Fatalf("expected gpio 17, got %d", cfg.SysfsGPIO.GPIO)
	}
	if want := filepath.Join(home, ".rf-ctrl"); cfg.StorageDir != want {
		t.Fatalf("storage dir %q, want %q", cfg.StorageDir, want)
	}
	fromPelletier, err := config.Load("ex.config.toml")
	if err != nil {
		t.Fatalf("config.Load example: %v", err)
	}
	if fromPelletier.StorageDir != cfg.StorageDir {
		t.Fatalf("loaders disagree on storage dir: %q vs %q", fromPelletier.StorageDir, cfg.StorageDir)
	}
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "rfctl.toml")
	data := "transport = \"wav\"\n\n[wav]\npath = \"out.wav\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := config.Default()
	if cfg.Transport != "wav" || cfg.WAV.Path != "out.wav" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.WAV.SampleRate != def.WAV.SampleRate {
		t.Fatalf("sample rate default lost: %d", cfg.WAV.SampleRate)
	}
	if cfg.Accuracy != def.Accuracy || cfg.HTTPAddr != def.HTTPAddr {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("transport = \n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
