package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format (HH:MM:SS.mmm)
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// FormatSeconds renders a duration as plain seconds for ffmpeg filter expressions
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// ParseFrameRate parses a frame rate from ffprobe format (e.g., "24/1", "30000/1001")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// Timecode renders a duration as non-drop SMPTE timecode (HH:MM:SS:FF) at the
// given frame rate. Fractional rates are counted at their nominal integer base.
func Timecode(d time.Duration, fps float64) string {
	base := int(math.Round(fps))
	if base <= 0 {
		base = 24
	}
	total := int(math.Round(d.Seconds() * fps))
	frames := total % base
	seconds := total / base
	return fmt.Sprintf("%02d:%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60, frames)
}

// DurationToFrames truncates a duration to whole frames at the given rate,
// matching the host editor's frame arithmetic.
func DurationToFrames(d time.Duration, fps float64) int {
	return int(d.Seconds() * fps)
}
