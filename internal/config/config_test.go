package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}

	if cfg.Encode.Width != 3840 || cfg.Encode.Height != 2160 {
		t.Errorf("default resolution = %dx%d, want 3840x2160", cfg.Encode.Width, cfg.Encode.Height)
	}
	if cfg.Encode.FPS != 24 {
		t.Errorf("default fps = %d, want 24", cfg.Encode.FPS)
	}
	if cfg.Convert.ClipSeconds != 5 {
		t.Errorf("default clip_seconds = %v, want 5", cfg.Convert.ClipSeconds)
	}
	if cfg.Timeline.TotalSeconds != 60 {
		t.Errorf("default total_seconds = %v, want 60", cfg.Timeline.TotalSeconds)
	}
	if cfg.Timeline.Diversity != 0.5 {
		t.Errorf("default diversity = %v, want 0.5", cfg.Timeline.Diversity)
	}
	if cfg.Timeline.MinSceneScore != 0.3 {
		t.Errorf("default min_scene_score = %v, want 0.3", cfg.Timeline.MinSceneScore)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
encode:
  fps: 30
  preset: fast
timeline:
  diversity: 0.8
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Encode.FPS != 30 {
		t.Errorf("fps = %d, want 30", cfg.Encode.FPS)
	}
	if cfg.Encode.Preset != "fast" {
		t.Errorf("preset = %q, want fast", cfg.Encode.Preset)
	}
	if cfg.Timeline.Diversity != 0.8 {
		t.Errorf("diversity = %v, want 0.8", cfg.Timeline.Diversity)
	}
	// Untouched sections keep their defaults
	if cfg.Encode.Width != 3840 {
		t.Errorf("width = %d, want default 3840", cfg.Encode.Width)
	}
	if cfg.Combine.OutputName != "final.mp4" {
		t.Errorf("output_name = %q, want default final.mp4", cfg.Combine.OutputName)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("encode: ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Encode.FPS = 25

	ctx := WithConfig(context.Background(), cfg)
	got := FromContext(ctx)
	if got.Encode.FPS != 25 {
		t.Errorf("FromContext fps = %d, want 25", got.Encode.FPS)
	}

	// Missing config falls back to defaults
	fallback := FromContext(context.Background())
	if fallback.Encode.FPS != 24 {
		t.Errorf("fallback fps = %d, want 24", fallback.Encode.FPS)
	}
}
