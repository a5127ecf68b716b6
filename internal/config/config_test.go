package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def := DefaultConfig()
	if cfg.BaseURL != def.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, def.BaseURL)
	}
	if cfg.FeedLimit != def.FeedLimit {
		t.Errorf("FeedLimit = %d, want %d", cfg.FeedLimit, def.FeedLimit)
	}
	if cfg.Retries != 1 {
		t.Errorf("Retries = %d, want 1", cfg.Retries)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`base_url: http://localhost:5000
timeout: 3s
feed_limit: 50
log_level: debug
ui:
  alt_screen: false
  notice_duration: 2s
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %s, want 3s", cfg.Timeout)
	}
	if cfg.FeedLimit != 50 {
		t.Errorf("FeedLimit = %d, want 50", cfg.FeedLimit)
	}
	if cfg.UI.AltScreen {
		t.Error("AltScreen should be false")
	}
	if cfg.UI.NoticeDuration != 2*time.Second {
		t.Errorf("NoticeDuration = %s, want 2s", cfg.UI.NoticeDuration)
	}
	// Untouched keys keep their defaults.
	if cfg.RequestsPerSecond != DefaultConfig().RequestsPerSecond {
		t.Errorf("RequestsPerSecond = %v", cfg.RequestsPerSecond)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("feed_limit: 50\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SNOOZE_FEED_LIMIT", "7")
	t.Setenv("SNOOZE_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("SNOOZE_UI_ALT_SCREEN", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FeedLimit != 7 {
		t.Errorf("FeedLimit = %d, want 7", cfg.FeedLimit)
	}
	if cfg.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UI.AltScreen {
		t.Error("SNOOZE_UI_ALT_SCREEN=false should disable alt screen")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad scheme", "base_url: ftp://example.com\n"},
		{"zero timeout", "timeout: 0s\n"},
		{"negative retries", "retries: -1\n"},
		{"zero feed limit", "feed_limit: 0\n"},
		{"malformed", "feed_limit: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.BaseURL = "http://localhost:5000"
	cfg.FeedLimit = 10
	cfg.UI.NoticeDuration = time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.BaseURL != cfg.BaseURL || got.FeedLimit != 10 || got.UI.NoticeDuration != time.Second {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/snooze"
	if cfg.DBPath() != filepath.Join("/tmp/snooze", "snooze.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if cfg.LogDir() != filepath.Join("/tmp/snooze", "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir())
	}
	opts := cfg.APIOptions()
	if opts.BaseURL != cfg.BaseURL || opts.Retries != cfg.Retries {
		t.Errorf("APIOptions = %+v", opts)
	}
}
