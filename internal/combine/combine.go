package combine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/ffmpeg"
	"github.com/y-ogi/photos2videos/internal/photos"
	"github.com/y-ogi/photos2videos/internal/still"
	"github.com/y-ogi/photos2videos/pkg/util"
)

// renderer is the slice of the ffmpeg executor the combiner needs
type renderer interface {
	EncodeStill(ctx context.Context, opts ffmpeg.StillOptions) error
	Fade(ctx context.Context, opts ffmpeg.FadeOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	Probe(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// photoConverter runs the photo-to-clip stage feeding the combiner
type photoConverter interface {
	Run(ctx context.Context, inputDir, outputDir string) ([]photos.Result, error)
}

// Options configures a combine run
type Options struct {
	// TitleDuration is how long each folder's title card holds
	TitleDuration time.Duration
	// TitleFade is the fade in/out length baked into title cards
	TitleFade time.Duration
	// Transition is the fade length joining segments
	Transition time.Duration
	// FolderOrder forces the listed folders first; unlisted ones follow
	// in lexical order
	FolderOrder []string
	OutputName  string
	Profile     ffmpeg.Profile
}

// Combiner builds one video per photo folder, each opened by a title card,
// then joins the folder videos into a single album video.
type Combiner struct {
	exec   renderer
	conv   photoConverter
	logger zerolog.Logger
	opts   Options
}

// NewCombiner wires the combiner to the ffmpeg executor and photo converter
func NewCombiner(logger zerolog.Logger, exec *ffmpeg.Executor, conv *photos.Converter, opts Options) *Combiner {
	return &Combiner{
		exec:   exec,
		conv:   conv,
		logger: logger.With().Str("component", "combine").Logger(),
		opts:   opts,
	}
}

// Run converts the photos under inputDir and combines the resulting clips
// into outputDir/<OutputName>. It returns the final video path.
func (c *Combiner) Run(ctx context.Context, inputDir, outputDir string) (string, error) {
	if err := util.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	clipsDir := filepath.Join(outputDir, "clips")
	if _, err := c.conv.Run(ctx, inputDir, clipsDir); err != nil {
		return "", fmt.Errorf("photo conversion stage failed: %w", err)
	}

	folders, err := listFolders(clipsDir)
	if err != nil {
		return "", fmt.Errorf("failed to list clip folders: %w", err)
	}
	ordered := orderFolders(folders, c.opts.FolderOrder)
	c.logger.Info().Strs("folders", ordered).Msg("combining folders")

	var folderVideos []string
	for _, folder := range ordered {
		combined, err := c.combineFolder(ctx, clipsDir, outputDir, folder)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn().Err(err).Str("folder", folder).Msg("skipping folder")
			continue
		}
		if combined != "" {
			folderVideos = append(folderVideos, combined)
		}
	}

	if len(folderVideos) == 0 {
		return "", fmt.Errorf("no folders produced a combined video")
	}

	final := filepath.Join(outputDir, c.opts.OutputName)
	if err := c.combineWithTransitions(ctx, folderVideos, final); err != nil {
		return "", fmt.Errorf("final combine failed: %w", err)
	}

	util.CleanupFiles(folderVideos...)
	if err := os.RemoveAll(clipsDir); err != nil {
		c.logger.Warn().Err(err).Str("dir", clipsDir).Msg("failed to remove work tree")
	}

	c.logger.Info().Str("output", final).Msg("combine complete")
	return final, nil
}

// combineFolder builds <folder>_combined.mp4 from a title card plus the
// folder's clips. An empty folder returns "" without error.
func (c *Combiner) combineFolder(ctx context.Context, clipsDir, outputDir, folder string) (string, error) {
	videos, err := util.ListFiles(filepath.Join(clipsDir, folder), ".mp4")
	if err != nil {
		return "", fmt.Errorf("failed to list clips: %w", err)
	}
	if len(videos) == 0 {
		c.logger.Warn().Str("folder", folder).Msg("no clips in folder")
		return "", nil
	}

	c.logger.Info().Str("folder", folder).Int("clips", len(videos)).Msg("combining folder")

	titlePath := filepath.Join(outputDir, fmt.Sprintf("title_%s.mp4", folder))
	if err := c.renderTitle(ctx, folder, titlePath); err != nil {
		return "", fmt.Errorf("title card failed: %w", err)
	}
	defer util.CleanupFiles(titlePath)

	segments := make([]string, 0, len(videos)+1)
	segments = append(segments, titlePath)
	for _, v := range videos {
		segments = append(segments, filepath.Join(clipsDir, folder, v))
	}

	combined := filepath.Join(outputDir, fmt.Sprintf("%s_combined.mp4", folder))
	if err := c.combineWithTransitions(ctx, segments, combined); err != nil {
		return "", err
	}
	return combined, nil
}

// renderTitle encodes a black title card clip with the folder name
func (c *Combiner) renderTitle(ctx context.Context, text, output string) error {
	card, err := still.RenderTitleCard(text, c.opts.Profile.Width, c.opts.Profile.Height)
	if err != nil {
		return err
	}

	framePath := util.ReplaceExtension(output, ".png")
	if err := still.SavePNG(card, framePath); err != nil {
		return err
	}
	defer util.CleanupFiles(framePath)

	return c.exec.EncodeStill(ctx, ffmpeg.StillOptions{
		Input:     framePath,
		Output:    output,
		Duration:  c.opts.TitleDuration,
		FadeIn:    c.opts.TitleFade,
		FadeOut:   c.opts.TitleFade,
		Profile:   c.opts.Profile,
		Faststart: true,
	})
}

// combineWithTransitions fades segment edges per the fade plan, then joins
// the processed segments. Segments play back to back; fades go to black
// rather than overlapping, so the output duration is the plain sum.
func (c *Combiner) combineWithTransitions(ctx context.Context, inputs []string, output string) error {
	tmpDir, err := os.MkdirTemp("", "photos2videos-combine-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plan := fadePlan(len(inputs), c.opts.Transition)
	processed := make([]string, 0, len(inputs))

	for i, input := range inputs {
		fades := plan[i]
		if fades.In == 0 && fades.Out == 0 {
			processed = append(processed, input)
			continue
		}

		info, err := c.exec.Probe(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to probe segment %s: %w", input, err)
		}

		// index prefix keeps temp names unique; the source name stays so
		// concat lists remain traceable
		temp := filepath.Join(tmpDir, fmt.Sprintf("%03d_%s", i, filepath.Base(input)))
		if err := c.exec.Fade(ctx, ffmpeg.FadeOptions{
			Input:    input,
			Output:   temp,
			Duration: info.Duration,
			FadeIn:   fades.In,
			FadeOut:  fades.Out,
			Profile:  c.opts.Profile,
		}); err != nil {
			return fmt.Errorf("fade pass failed for %s: %w", input, err)
		}
		processed = append(processed, temp)
	}

	return c.exec.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:  processed,
		Output:  output,
		Profile: c.opts.Profile,
	})
}

// segmentFades is the edge treatment for one segment in a combine run
type segmentFades struct {
	In  time.Duration
	Out time.Duration
}

// fadePlan assigns edge fades: the run opens and closes hard, and every
// interior boundary is faded on both sides.
func fadePlan(n int, transition time.Duration) []segmentFades {
	plan := make([]segmentFades, n)
	if transition <= 0 {
		return plan
	}
	for i := range plan {
		switch {
		case i == 0:
			plan[i] = segmentFades{Out: transition}
		case i == n-1:
			plan[i] = segmentFades{In: transition}
		default:
			plan[i] = segmentFades{In: transition, Out: transition}
		}
	}
	return plan
}

// listFolders returns the immediate subdirectories of dir
func listFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	return folders, nil
}

// orderFolders sorts folders by their position in the explicit order;
// unlisted folders follow the listed ones, lexically.
func orderFolders(folders, explicit []string) []string {
	ordered := append([]string(nil), folders...)
	sort.Strings(ordered)

	if len(explicit) == 0 {
		return ordered
	}

	rank := func(name string) int {
		for i, e := range explicit {
			if e == name {
				return i
			}
		}
		return len(explicit)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i]) < rank(ordered[j])
	})
	return ordered
}
