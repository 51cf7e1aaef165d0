package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/y-ogi/photos2videos/pkg/util"
)

// DetectScenes finds scene changes using ffmpeg's scene filter. The threshold
// is the minimum scene score in [0,1]; only cuts above it are reported.
func (e *Executor) DetectScenes(ctx context.Context, input string, threshold float64) ([]time.Duration, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("scene threshold %v out of range [0,1]", threshold)
	}

	e.logger.Debug().
		Str("input", input).
		Float64("threshold", threshold).
		Msg("detecting scene changes")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold),
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("scene detection failed for %s: %w", input, err)
	}

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	scenes := parseSceneOutput(output)
	e.logger.Debug().Int("scenes", len(scenes)).Str("input", input).Msg("scene detection complete")
	return scenes, nil
}

// parseSceneOutput extracts showinfo pts_time values from ffmpeg stderr
func parseSceneOutput(output string) []time.Duration {
	var scenes []time.Duration

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "pts_time:") {
			continue
		}
		parts := strings.Split(line, "pts_time:")
		if len(parts) != 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		if seconds, err := strconv.ParseFloat(fields[0], 64); err == nil {
			scenes = append(scenes, time.Duration(seconds*float64(time.Second)))
		}
	}

	return scenes
}

// ExtractFrame saves a single frame at the given timestamp as an image file
func (e *Executor) ExtractFrame(ctx context.Context, input string, at time.Duration, output string) error {
	args, err := buildExtractFrameArgs(input, at, output)
	if err != nil {
		return err
	}

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	return e.Run(ctx, opts)
}

// buildExtractFrameArgs constructs the argument list for a single-frame grab
func buildExtractFrameArgs(input string, at time.Duration, output string) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if at < 0 {
		return nil, fmt.Errorf("frame timestamp %v is negative", at)
	}

	return []string{
		"-ss", util.FormatDuration(at),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		output,
	}, nil
}
