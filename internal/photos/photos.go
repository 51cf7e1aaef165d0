package photos

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/y-ogi/photos2videos/internal/ffmpeg"
	"github.com/y-ogi/photos2videos/internal/still"
	"github.com/y-ogi/photos2videos/pkg/util"
)

// encoder is the slice of the ffmpeg executor the converter needs
type encoder interface {
	EncodeStill(ctx context.Context, opts ffmpeg.StillOptions) error
}

// Options configures a photo conversion run
type Options struct {
	// Duration is how long each photo is held on screen
	Duration time.Duration
	// Jobs bounds how many photos are processed in parallel
	Jobs    int
	Profile ffmpeg.Profile
	// Progress renders a terminal progress bar over the batch
	Progress bool
}

// Result reports one photo's conversion in enumeration order
type Result struct {
	Input  string
	Output string
	Err    error
}

// Converter turns a folder tree of photos into held 4K clips
type Converter struct {
	enc    encoder
	logger zerolog.Logger
	opts   Options
}

// NewConverter wires a converter to the ffmpeg executor
func NewConverter(logger zerolog.Logger, exec *ffmpeg.Executor, opts Options) *Converter {
	return &Converter{
		enc:    exec,
		logger: logger.With().Str("component", "photos").Logger(),
		opts:   opts,
	}
}

// Run converts every JPEG under inputDir into a clip under outputDir,
// mirroring the directory layout. Failed photos are reported and skipped;
// the run only fails as a whole when nothing converts.
func (c *Converter) Run(ctx context.Context, inputDir, outputDir string) ([]Result, error) {
	if c.opts.Duration <= 0 {
		return nil, fmt.Errorf("photo duration must be positive")
	}

	files, err := util.ListFiles(inputDir, ".jpg", ".jpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", inputDir, err)
	}
	if len(files) == 0 {
		c.logger.Warn().Str("dir", inputDir).Msg("no JPEG photos found")
		return nil, nil
	}

	c.logger.Info().
		Int("photos", len(files)).
		Str("input", inputDir).
		Str("output", outputDir).
		Msg("converting photos")

	var bar *progressbar.ProgressBar
	if c.opts.Progress {
		bar = progressbar.Default(int64(len(files)), "converting")
	}

	jobs := c.opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	// results are indexed by enumeration order, so reporting stays
	// deterministic no matter how workers interleave
	results := make([]Result, len(files))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rel := files[i]
				input := filepath.Join(inputDir, rel)
				output := filepath.Join(outputDir, util.ReplaceExtension(rel, ".mp4"))

				err := c.convertOne(ctx, input, output)
				results[i] = Result{Input: input, Output: output, Err: err}
				if err != nil {
					c.logger.Warn().Err(err).Str("photo", rel).Msg("photo conversion failed")
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

feed:
	for i := range files {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		return results, fmt.Errorf("all %d photos failed to convert", failed)
	}

	c.logger.Info().
		Int("converted", len(results)-failed).
		Int("failed", failed).
		Msg("photo conversion complete")

	return results, nil
}

// convertOne runs the load, compose, encode pipeline for a single photo.
// The composed frame stays on disk when encoding fails.
func (c *Converter) convertOne(ctx context.Context, input, output string) error {
	if err := util.EnsureDir(filepath.Dir(output)); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	img, err := still.Load(input)
	if err != nil {
		return err
	}

	frame, err := still.Compose(img, c.opts.Profile.Width, c.opts.Profile.Height)
	if err != nil {
		return fmt.Errorf("failed to compose frame for %s: %w", input, err)
	}

	framePath := util.ReplaceExtension(output, ".png")
	if err := still.SavePNG(frame, framePath); err != nil {
		return err
	}

	if err := c.enc.EncodeStill(ctx, ffmpeg.StillOptions{
		Input:     framePath,
		Output:    output,
		Duration:  c.opts.Duration,
		Profile:   c.opts.Profile,
		Faststart: true,
	}); err != nil {
		c.logger.Warn().Str("frame", framePath).Msg("keeping composed frame after encode failure")
		return fmt.Errorf("failed to encode %s: %w", output, err)
	}

	util.CleanupFiles(framePath)
	return nil
}
