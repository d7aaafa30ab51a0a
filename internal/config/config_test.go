package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvUserAgent, "")
	t.Setenv(EnvCookie, "")
	t.Setenv(EnvOutput, "")
	return filepath.Join(dir, "novelscraper")
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	root := isolate(t)

	cfg, used, err := LoadMerged(Options{ChapterWorkers: 8})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if used == "" || cfg.ChapterWorkers != 8 || cfg.Retries != 0 || cfg.Fetcher != "http" {
		t.Fatalf("unexpected config %+v (%s)", cfg, used)
	}
	if cfg.SourcesDir != filepath.Join(root, "sources") {
		t.Fatalf("SourcesDir = %q", cfg.SourcesDir)
	}
}

func TestLoadMergedPrecedence(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	if err != nil {
		t.Fatalf("InitDefaultConfig: %v", err)
	}

	profile := DefaultConfig()
	profile.Output = "/from/profile"
	profile.Retries = 2
	profile.RequestInterval = 250 * time.Millisecond
	profile.UserAgent = "profile-agent"
	if err := SaveYAML(profile, path); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvUserAgent, "env-agent")
	t.Setenv(EnvOutput, "/from/env")

	cfg, used, err := LoadMerged(Options{Output: "/from/flag", Debug: true})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if used != path {
		t.Fatalf("used = %q, want %q", used, path)
	}
	if cfg.Output != "/from/flag" {
		t.Errorf("flag should win, Output = %q", cfg.Output)
	}
	if cfg.UserAgent != "env-agent" {
		t.Errorf("env should beat profile, UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Retries != 2 || cfg.RequestInterval != 250*time.Millisecond || !cfg.Debug {
		t.Errorf("profile values lost: %+v", cfg)
	}

	ignored, _, err := LoadMerged(Options{IgnoreConfig: true})
	if err != nil {
		t.Fatal(err)
	}
	if ignored.Retries != 0 || ignored.Output != "/from/env" {
		t.Errorf("ignore-config should skip the profile only: %+v", ignored)
	}
}

func TestProfiles(t *testing.T) {
	isolate(t)

	if _, err := InitDefaultConfig(); err != nil {
		t.Fatalf("InitDefaultConfig: %v", err)
	}
	if _, err := InitDefaultConfig(); !errors.Is(err, os.ErrExist) {
		t.Fatalf("second init should report ErrExist, got %v", err)
	}

	if _, err := CreateEmptyConfig("work"); err != nil {
		t.Fatalf("CreateEmptyConfig: %v", err)
	}
	if _, err := CreateEmptyConfig("work"); err == nil {
		t.Fatalf("duplicate label should fail")
	}
	if _, err := CreateEmptyConfig("../escape"); !errors.Is(err, ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}

	if err := SwitchConfig("work"); err != nil {
		t.Fatalf("SwitchConfig: %v", err)
	}
	if err := RenameConfig("work", "job"); err != nil {
		t.Fatalf("RenameConfig: %v", err)
	}
	if label, _ := CurrentLabel(); label != "job" {
		t.Fatalf("rename should follow the active label, got %q", label)
	}

	list, err := ListConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Label != DefaultLabel || list[1].Label != "job" || !list[1].Active {
		t.Fatalf("ListConfigs = %+v", list)
	}

	switched, err := RemoveConfig("job")
	if err != nil || !switched {
		t.Fatalf("RemoveConfig = %t, %v", switched, err)
	}
	if label, _ := CurrentLabel(); label != DefaultLabel {
		t.Fatalf("active label = %q after removal", label)
	}
	if _, err := RemoveConfig(DefaultLabel); err == nil {
		t.Fatalf("Default must not be removable")
	}
}

func TestAddConfigValidates(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("chapter_workers: 9\nretry_backoff: 2s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("chapter_workers: [nope"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := AddConfig("good", good); err != nil {
		t.Fatalf("AddConfig: %v", err)
	}
	if err := AddConfig("bad", bad); err == nil {
		t.Fatalf("invalid YAML should be rejected")
	}

	cfg, err := loadYAML(labelPath("good"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ChapterWorkers != 9 || cfg.RetryBackoff != 2*time.Second || cfg.Timeout != 30*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
