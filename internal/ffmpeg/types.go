package ffmpeg

import (
	"fmt"
	"image"
	"strconv"
	"time"
)

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int64
	FPS     float64
	Bitrate string
	OutTime time.Duration
	Speed   string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// Profile is the encode profile shared by every rendered output
type Profile struct {
	Width        int
	Height       int
	FPS          int
	VideoCodec   string
	VideoBitrate string
	Preset       string
	PixelFormat  string
}

// DefaultProfile returns the 4K/24fps H.264 delivery profile
func DefaultProfile() Profile {
	return Profile{
		Width:        3840,
		Height:       2160,
		FPS:          24,
		VideoCodec:   "libx264",
		VideoBitrate: "20M",
		Preset:       "slow",
		PixelFormat:  "yuv420p",
	}
}

// FrameDuration returns the length of one frame at the profile's rate.
func (p Profile) FrameDuration() time.Duration {
	if p.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(p.FPS))
}

// encodeArgs renders the profile as output arguments
func (p Profile) encodeArgs() []string {
	codec := p.VideoCodec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{"-c:v", codec}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	if p.VideoBitrate != "" {
		args = append(args, "-b:v", p.VideoBitrate)
	}
	if p.PixelFormat != "" {
		args = append(args, "-pix_fmt", p.PixelFormat)
	}
	if p.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(p.FPS))
	}
	return args
}

// StillOptions configures encoding a single image into a held clip
type StillOptions struct {
	Input    string
	Output   string
	Duration time.Duration
	// FadeIn/FadeOut apply fades at the clip edges when non-zero
	FadeIn  time.Duration
	FadeOut time.Duration
	Profile Profile
	// Faststart relocates the moov atom for streaming playback
	Faststart    bool
	ProgressFunc ProgressFunc
}

// FadeOptions configures a fade re-encode pass over an existing clip
type FadeOptions struct {
	Input  string
	Output string
	// Duration is the source clip length, required to place the fade-out
	Duration     time.Duration
	FadeIn       time.Duration
	FadeOut      time.Duration
	Profile      Profile
	ProgressFunc ProgressFunc
}

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs       []string
	Output       string
	Profile      Profile
	ProgressFunc ProgressFunc
}

// SampleOptions configures downscaled frame extraction for analysis
type SampleOptions struct {
	Input string
	// Start/Window bound the sampled region; a zero Window samples to EOF
	Start  time.Duration
	Window time.Duration
	// Interval is the stride between sampled frames
	Interval time.Duration
	// ScaleWidth downsizes frames for cheap pixel statistics
	ScaleWidth int
}

// Frame is one sampled video frame with its source timestamp
type Frame struct {
	Time  time.Duration
	Image image.Image
}

func validateProfile(p Profile) error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("profile resolution %dx%d is invalid", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("profile frame rate %d is invalid", p.FPS)
	}
	return nil
}
