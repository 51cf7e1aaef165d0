package ffmpeg

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/y-ogi/photos2videos/pkg/util"
)

// SampleFrames extracts downscaled frames at a fixed stride across a window
// of the input and decodes them for pixel statistics. Frames are small by
// design; callers analyze them, they are never part of any output.
func (e *Executor) SampleFrames(ctx context.Context, opts SampleOptions) ([]Frame, error) {
	if opts.Input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive")
	}

	scaleWidth := opts.ScaleWidth
	if scaleWidth <= 0 {
		scaleWidth = 160
	}

	tmpDir, err := os.MkdirTemp("", "photos2videos-frames-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := make([]string, 0, 12)
	if opts.Start > 0 {
		args = append(args, "-ss", util.FormatSeconds(opts.Start))
	}
	if opts.Window > 0 {
		args = append(args, "-t", util.FormatSeconds(opts.Window))
	}
	args = append(args,
		"-i", opts.Input,
		"-vf", fmt.Sprintf("fps=%f,scale=%d:-2", 1.0/opts.Interval.Seconds(), scaleWidth),
		"-f", "image2",
		filepath.Join(tmpDir, "frame_%05d.png"),
	)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame sampling")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return nil, fmt.Errorf("frame sampling failed for %s: %w", opts.Input, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame dir: %w", err)
	}

	frames := make([]Frame, 0, len(entries))
	for i, entry := range entries {
		if entry.IsDir() {
			continue
		}
		img, err := decodeImageFile(filepath.Join(tmpDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to decode sampled frame %s: %w", entry.Name(), err)
		}
		frames = append(frames, Frame{
			Time:  opts.Start + time.Duration(i)*opts.Interval,
			Image: img,
		})
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames sampled from %s", opts.Input)
	}

	return frames, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
