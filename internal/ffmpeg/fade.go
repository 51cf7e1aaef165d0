package ffmpeg

import (
	"context"
	"fmt"
)

// Fade re-encodes a clip with fade-from-black and fade-to-black edges.
// The fade-out is anchored against opts.Duration, so callers must pass the
// clip's real length.
func (e *Executor) Fade(ctx context.Context, opts FadeOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.FadeOut > 0 && opts.Duration <= 0 {
		return fmt.Errorf("clip duration is required to place a fade-out")
	}
	if err := validateProfile(opts.Profile); err != nil {
		return err
	}

	filter := fadeFilter(opts.FadeIn, opts.FadeOut, opts.Duration)
	if filter == "" {
		return fmt.Errorf("no fade requested for %s", opts.Input)
	}

	e.logger.Debug().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Dur("fade_in", opts.FadeIn).
		Dur("fade_out", opts.FadeOut).
		Msg("applying fades")

	args := []string{"-i", opts.Input, "-vf", filter}
	args = append(args, opts.Profile.encodeArgs()...)
	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("fade pass")
		},
	}

	return e.Run(ctx, runOpts)
}
