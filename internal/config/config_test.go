package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.PseudoStreamEnabled {
		t.Fatal("pseudo-streaming must default to off")
	}
	if cfg.NonStreamKeepAlive {
		t.Fatal("non-streaming keepalive must default to off")
	}
	if got := cfg.HeartbeatInterval(); got != 5*time.Second {
		t.Fatalf("heartbeat interval default = %v, want 5s", got)
	}
	if got := cfg.KeepAliveInterval(); got != 5*time.Second {
		t.Fatalf("keepalive interval default = %v, want 5s", got)
	}
	if cfg.RetryMax != 3 {
		t.Fatalf("retry max default = %d, want 3", cfg.RetryMax)
	}
	if got := cfg.RetryInterval(); got != time.Second {
		t.Fatalf("retry interval default = %v, want 1s", got)
	}
	if cfg.CodeAssistEndpoint != DefaultCodeAssistEndpoint {
		t.Fatalf("unexpected endpoint: %s", cfg.CodeAssistEndpoint)
	}
}

func TestLoadWithFileMergesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("pseudo_streaming_enabled: true\npseudo_streaming_heartbeat_interval: 0.25\npseudo_streaming_max_heartbeats: 7\ngoogle_project_id: proj-1\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadWithFile(path)
	if cfg == nil {
		t.Fatal("LoadWithFile returned nil")
	}
	if !cfg.PseudoStreamEnabled {
		t.Fatal("expected pseudo-streaming enabled")
	}
	if cfg.MaxHeartbeats != 7 {
		t.Fatalf("max heartbeats = %d, want 7", cfg.MaxHeartbeats)
	}
	if got := cfg.HeartbeatInterval(); got != 250*time.Millisecond {
		t.Fatalf("heartbeat interval = %v, want 250ms", got)
	}
	if cfg.GoogleProjectID != "proj-1" {
		t.Fatalf("project id = %q", cfg.GoogleProjectID)
	}
}

func TestLoadWithMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg == nil {
		t.Fatal("missing file must not be an error")
	}
	if cfg.RetryMax != 3 {
		t.Fatalf("retry max = %d, want default 3", cfg.RetryMax)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("nonstream_keepalive_enabled: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NONSTREAM_KEEPALIVE_ENABLED", "true")
	t.Setenv("NONSTREAM_KEEPALIVE_INTERVAL", "2.5")

	cfg := LoadWithFile(path)
	if !cfg.NonStreamKeepAlive {
		t.Fatal("env toggle should override file value")
	}
	if got := cfg.KeepAliveInterval(); got != 2500*time.Millisecond {
		t.Fatalf("keepalive interval = %v, want 2.5s", got)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pseudo_streaming_max_heartbeats: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case loaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("pseudo_streaming_max_heartbeats: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-loaded:
		if cfg.MaxHeartbeats != 9 {
			t.Fatalf("reloaded max heartbeats = %d, want 9", cfg.MaxHeartbeats)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not observe the rewrite")
	}
}
