package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LIVE_TUNER_FEED_URL", "https://api.example.com/v1")
	t.Setenv("LIVE_TUNER_STREAM_SECRET", "0123456789abcdef")
}

func TestLoad_defaults(t *testing.T) {
	setBaseEnv(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ServiceType != "tv" || c.PrimaryLocale != "fi" || c.SecondaryLocale != "sv" {
		t.Errorf("defaults: %+v", c)
	}
	if c.FeedTimeout != 15*time.Second || c.FeedRPS != 5 {
		t.Errorf("timing defaults: %+v", c)
	}
}

func TestLoad_envOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("feed_base_url: https://file.example.com\nservice_type: radio\napp_id: from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	setBaseEnv(t)
	t.Setenv("LIVE_TUNER_FEED_URL", "https://env.example.com")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.FeedBaseURL != "https://env.example.com" {
		t.Errorf("env should win: %q", c.FeedBaseURL)
	}
	if c.ServiceType != "radio" || c.AppID != "from-file" {
		t.Errorf("file values should survive where env is unset: %+v", c)
	}
}

func TestLoad_missingFileIsFine(t *testing.T) {
	setBaseEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing config file should not fail: %v", err)
	}
}

func TestLoad_requiresFeedURL(t *testing.T) {
	t.Setenv("LIVE_TUNER_FEED_URL", "")
	t.Setenv("LIVE_TUNER_STREAM_SECRET", "0123456789abcdef")
	if _, err := Load(""); err == nil {
		t.Error("expected error for missing feed URL")
	}
}

func TestLoad_secretLength(t *testing.T) {
	setBaseEnv(t)
	for _, bad := range []string{"", "short", "17-bytes-is-wrong"} {
		t.Setenv("LIVE_TUNER_STREAM_SECRET", bad)
		if _, err := Load(""); err == nil {
			t.Errorf("secret %q should be rejected", bad)
		}
	}
	for _, ok := range []string{"0123456789abcdef", "0123456789abcdef01234567", "0123456789abcdef0123456789abcdef"} {
		t.Setenv("LIVE_TUNER_STREAM_SECRET", ok)
		if _, err := Load(""); err != nil {
			t.Errorf("secret of %d bytes rejected: %v", len(ok), err)
		}
	}
}

func TestLoad_localeNormalization(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LIVE_TUNER_PRIMARY_LOCALE", "FI")
	t.Setenv("LIVE_TUNER_SECONDARY_LOCALE", "sv-SE")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PrimaryLocale != "fi" || c.SecondaryLocale != "sv" {
		t.Errorf("locales: %q %q", c.PrimaryLocale, c.SecondaryLocale)
	}

	t.Setenv("LIVE_TUNER_PRIMARY_LOCALE", "not a locale !!")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unparseable locale")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nLIVE_TUNER_TEST_A=plain\nLIVE_TUNER_TEST_B=\"quoted\"\nexport LIVE_TUNER_TEST_C=exported\n\nnot-a-pair\n=nokey\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIVE_TUNER_TEST_A", "")
	t.Setenv("LIVE_TUNER_TEST_B", "")
	t.Setenv("LIVE_TUNER_TEST_C", "")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("LIVE_TUNER_TEST_A"); got != "plain" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("LIVE_TUNER_TEST_B"); got != "quoted" {
		t.Errorf("B = %q", got)
	}
	if got := os.Getenv("LIVE_TUNER_TEST_C"); got != "exported" {
		t.Errorf("C = %q", got)
	}
}

func TestLoadEnvFile_missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be silent: %v", err)
	}
}
