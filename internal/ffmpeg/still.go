package ffmpeg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/y-ogi/photos2videos/pkg/util"
)

// EncodeStill renders a single image into a clip that holds the frame for the
// requested duration. The image is expected to already match the profile's
// resolution; only the temporal side is synthesized here.
func (e *Executor) EncodeStill(ctx context.Context, opts StillOptions) error {
	args, err := buildStillArgs(opts)
	if err != nil {
		return err
	}

	e.logger.Debug().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Dur("duration", opts.Duration).
		Msg("encoding still")

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("still encode")
		},
	}

	return e.Run(ctx, runOpts)
}

// buildStillArgs constructs the argument list for a still encode
func buildStillArgs(opts StillOptions) ([]string, error) {
	if opts.Input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("still duration must be positive")
	}
	if err := validateProfile(opts.Profile); err != nil {
		return nil, err
	}

	args := []string{
		"-loop", "1",
		"-t", util.FormatSeconds(opts.Duration),
		"-i", opts.Input,
	}

	if filter := fadeFilter(opts.FadeIn, opts.FadeOut, opts.Duration); filter != "" {
		args = append(args, "-vf", filter)
	}

	args = append(args, opts.Profile.encodeArgs()...)

	if opts.Faststart {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, opts.Output)
	return args, nil
}

// fadeFilter builds a fade in/out filter chain; empty when no fade applies
func fadeFilter(fadeIn, fadeOut, total time.Duration) string {
	var filters []string
	if fadeIn > 0 {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%s", util.FormatSeconds(fadeIn)))
	}
	if fadeOut > 0 && total > fadeOut {
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%s:d=%s",
			util.FormatSeconds(total-fadeOut), util.FormatSeconds(fadeOut)))
	}
	return strings.Join(filters, ",")
}
