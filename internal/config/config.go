package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Encode is the output profile every rendered video uses
	Encode EncodeConfig `yaml:"encode"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Convert settings (photo to clip)
	Convert ConvertConfig `yaml:"convert"`

	// Combine settings (folder albums into one video)
	Combine CombineConfig `yaml:"combine"`

	// Timeline settings (clip selection and NLE handoff)
	Timeline TimelineConfig `yaml:"timeline"`

	// Resolve bridge settings
	Resolve ResolveConfig `yaml:"resolve"`
}

// EncodeConfig describes the H.264 output profile. Durations and rates
// elsewhere are validated against this frame rate.
type EncodeConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	VideoBitrate string `yaml:"video_bitrate"`
	Preset       string `yaml:"preset"`
	PixelFormat  string `yaml:"pixel_format"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

type ConvertConfig struct {
	// ClipSeconds is how long each photo is held on screen
	ClipSeconds float64 `yaml:"clip_seconds"`
	// Jobs bounds the number of photos encoded in parallel
	Jobs int `yaml:"jobs"`
}

type CombineConfig struct {
	TitleSeconds      float64 `yaml:"title_seconds"`
	TitleFadeSeconds  float64 `yaml:"title_fade_seconds"`
	TransitionSeconds float64 `yaml:"transition_seconds"`
	OutputName        string  `yaml:"output_name"`
}

type TimelineConfig struct {
	ClipSeconds   float64 `yaml:"clip_seconds"`
	TotalSeconds  float64 `yaml:"total_seconds"`
	Diversity     float64 `yaml:"diversity"`
	MinSceneScore float64 `yaml:"min_scene_score"`
	// SampleSeconds is the frame sampling stride used by clip analysis
	SampleSeconds float64 `yaml:"sample_seconds"`
	// MaxPerFile caps how many candidate windows one source contributes
	MaxPerFile int `yaml:"max_per_file"`
}

type ResolveConfig struct {
	Python         string  `yaml:"python"`
	EnvFile        string  `yaml:"env_file"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	BinPrefix      string  `yaml:"bin_prefix"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		Encode: EncodeConfig{
			Width:        3840,
			Height:       2160,
			FPS:          24,
			VideoBitrate: "20M",
			Preset:       "slow",
			PixelFormat:  "yuv420p",
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
		Convert: ConvertConfig{
			ClipSeconds: 5,
			Jobs:        1,
		},
		Combine: CombineConfig{
			TitleSeconds:      2,
			TitleFadeSeconds:  0.5,
			TransitionSeconds: 1,
			OutputName:        "final.mp4",
		},
		Timeline: TimelineConfig{
			ClipSeconds:   5,
			TotalSeconds:  60,
			Diversity:     0.5,
			MinSceneScore: 0.3,
			SampleSeconds: 0.5,
			MaxPerFile:    8,
		},
		Resolve: ResolveConfig{
			Python:         "python3",
			TimeoutSeconds: 120,
			BinPrefix:      "Random Clips",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".photos2videos", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
