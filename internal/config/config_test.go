package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edirooss/gasket-console/internal/patch"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "gasket-console.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != time.Second || cfg.PollTimeout != 5*time.Second {
		t.Fatalf("unexpected poll defaults %v %v", cfg.PollInterval, cfg.PollTimeout)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("expected %q, got %q", ":8080", cfg.Addr())
	}
	if m, _ := cfg.ToggleMode(); m != patch.ToggleMerge {
		t.Fatalf("expected merge, got %s", m)
	}
}

func TestLoadFile(t *testing.T) {
	p := write(t, `
api_url: http://10.0.0.2:3000
listen_address: 127.0.0.1
port: "9090"
poll_interval: 2s
poll_timeout: 500ms
redis_address: 127.0.0.1:6379
enabled_toggle: reset
allowed_origins: [https://console.example]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.2:3000" || cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PollInterval != 2*time.Second || cfg.PollTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected durations %v %v", cfg.PollInterval, cfg.PollTimeout)
	}
	if m, _ := cfg.ToggleMode(); m != patch.ToggleReset {
		t.Fatalf("expected reset, got %s", m)
	}
	if cfg.RedisChannel != "gasket:console:snapshots" {
		t.Fatalf("expected default channel, got %q", cfg.RedisChannel)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://console.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownToggle(t *testing.T) {
	if _, err := Load(write(t, "enabled_toggle: flip\n")); err == nil {
		t.Fatal("expected error for unknown toggle mode")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(write(t, "poll_interval: [\n")); err == nil {
		t.Fatal("expected parse error")
	}
}
