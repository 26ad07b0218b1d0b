package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Timing.RetryDelayMS != 3000 {
		t.Fatalf("unexpected default retry delay: %d", cfg.Timing.RetryDelayMS)
	}
	if cfg.Timing.Flicker() != 30*time.Millisecond {
		t.Fatalf("unexpected flicker duration: %v", cfg.Timing.Flicker())
	}
}

func TestLoadAppliesDefaultsOverZeroValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("source: /tmp/regions.geojson\ntiming:\n  flicker_ms: 5\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Source != "/tmp/regions.geojson" {
		t.Fatalf("explicit value lost: %q", cfg.Source)
	}
	if cfg.Timing.FlickerMS != 5 {
		t.Fatalf("explicit flicker lost: %d", cfg.Timing.FlickerMS)
	}
	if cfg.Timing.ClickThrottleMS != 300 || cfg.Map.NarrowBreakpoint != 100 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n\t-"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
