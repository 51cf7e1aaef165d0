package timeline

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/analysis"
	"github.com/y-ogi/photos2videos/internal/ffmpeg"
	"github.com/y-ogi/photos2videos/internal/selection"
	"github.com/y-ogi/photos2videos/pkg/util"
)

const markersSuffix = " (markers)"

type prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	DetectScenes(ctx context.Context, path string, threshold float64) ([]time.Duration, error)
}

type analyzer interface {
	Analyze(ctx context.Context, file string, start, window time.Duration) (*analysis.ClipStats, error)
}

// Options tune the generated timeline. Zero values fall back to the
// 5s/60s random defaults.
type Options struct {
	ClipDuration  time.Duration
	TotalDuration time.Duration

	// Smart switches from uniform random picks to scored selection.
	Smart       bool
	Diversity   float64
	SceneDetect bool
	// MinSceneScore is the scene filter threshold in [0,1].
	MinSceneScore float64
	// MaxPerFile caps how many candidate windows one file contributes.
	MaxPerFile int

	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64

	// Name of the primary timeline; empty picks a dated name.
	Name string
	Spec Spec
}

// Plan is the realized selection: the clips in playback order plus the
// timeline geometry they were laid out with.
type Plan struct {
	Name  string
	Spec  Spec
	Clips []PlacedClip
}

// MarkersName is the name of the duplicate timeline that carries cut
// markers for manual transition work.
func (p *Plan) MarkersName() string {
	return p.Name + markersSuffix
}

// Generator selects clips from an input directory and realizes them
// through a Sink.
type Generator struct {
	ffmpeg  prober
	analyze analyzer
	sink    Sink
	logger  zerolog.Logger
	opts    Options
}

// NewGenerator creates a timeline generator
func NewGenerator(logger zerolog.Logger, exec *ffmpeg.Executor, an *analysis.Analyzer, sink Sink, opts Options) *Generator {
	if opts.ClipDuration <= 0 {
		opts.ClipDuration = 5 * time.Second
	}
	if opts.TotalDuration <= 0 {
		opts.TotalDuration = 60 * time.Second
	}
	if opts.MinSceneScore <= 0 {
		opts.MinSceneScore = 0.3
	}
	if opts.MaxPerFile <= 0 {
		opts.MaxPerFile = 8
	}
	if opts.Spec == (Spec{}) {
		opts.Spec = Spec{Width: 3840, Height: 2160, FPS: 24}
	}
	return &Generator{
		ffmpeg:  exec,
		analyze: an,
		sink:    sink,
		logger:  logger.With().Str("component", "timeline").Logger(),
		opts:    opts,
	}
}

type sourceInfo struct {
	path     string
	duration time.Duration
	fps      float64
}

// Run enumerates the input videos, selects clips, and realizes the
// result as two timelines: the cut itself and a marker-annotated
// duplicate.
func (g *Generator) Run(ctx context.Context, inputDir string) (*Plan, error) {
	sources, err := g.probeSources(ctx, inputDir)
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Int("sources", len(sources)).
		Bool("smart", g.opts.Smart).
		Msg("selecting clips")

	picks, err := g.selectClips(ctx, sources)
	if err != nil {
		return nil, err
	}

	fpsByPath := make(map[string]float64, len(sources))
	for _, s := range sources {
		fpsByPath[s.path] = s.fps
	}

	plan := &Plan{Name: g.opts.Name, Spec: g.opts.Spec}
	if plan.Name == "" {
		plan.Name = "Random Timeline " + time.Now().Format("20060102_150405")
	}
	for _, p := range picks {
		plan.Clips = append(plan.Clips, PlacedClip{
			Path:        p.File,
			Name:        filepath.Base(p.File),
			SourceStart: p.Start,
			Duration:    p.Duration,
			FPS:         fpsByPath[p.File],
		})
	}

	g.logger.Info().
		Int("clips", len(plan.Clips)).
		Dur("total", selection.TotalDuration(picks)).
		Str("timeline", plan.Name).
		Msg("realizing timeline")

	if err := g.realize(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// probeSources lists the input videos and drops anything that cannot
// be probed. An empty result is a hard failure.
func (g *Generator) probeSources(ctx context.Context, inputDir string) ([]sourceInfo, error) {
	files, err := util.ListFiles(inputDir, ".mp4")
	if err != nil {
		return nil, fmt.Errorf("failed to list videos in %s: %w", inputDir, err)
	}

	var sources []sourceInfo
	for _, rel := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		abs, err := filepath.Abs(filepath.Join(inputDir, rel))
		if err != nil {
			return nil, err
		}
		info, err := g.ffmpeg.Probe(ctx, abs)
		if err != nil {
			g.logger.Warn().Err(err).Str("file", rel).Msg("skipping unreadable video")
			continue
		}
		if info.Duration <= 0 {
			g.logger.Warn().Str("file", rel).Msg("skipping video with no duration")
			continue
		}

		fps := info.FPS
		if fps <= 0 {
			fps = float64(g.opts.Spec.FPS)
		}
		sources = append(sources, sourceInfo{path: abs, duration: info.Duration, fps: fps})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: %w", inputDir, selection.ErrNoCandidates)
	}
	return sources, nil
}

func (g *Generator) selectClips(ctx context.Context, sources []sourceInfo) ([]selection.Candidate, error) {
	if g.opts.Smart {
		pool, err := g.buildPool(ctx, sources)
		if err != nil {
			return nil, err
		}
		return selection.Greedy(pool, g.opts.TotalDuration, g.opts.Diversity)
	}

	seed := g.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	srcs := make([]selection.Source, len(sources))
	for i, s := range sources {
		srcs[i] = selection.Source{File: s.path, Duration: s.duration}
	}
	return selection.Random(rng, srcs, g.opts.ClipDuration, g.opts.TotalDuration)
}

// buildPool analyzes candidate windows across every source. Windows
// that cannot be analyzed are skipped; an empty pool is a hard failure.
func (g *Generator) buildPool(ctx context.Context, sources []sourceInfo) ([]selection.Candidate, error) {
	var pool []selection.Candidate
	for _, src := range sources {
		for _, anchor := range g.anchors(ctx, src) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			dur := g.opts.ClipDuration
			if remaining := src.duration - anchor; remaining < dur {
				dur = remaining
			}
			if dur <= 0 {
				continue
			}

			stats, err := g.analyze.Analyze(ctx, src.path, anchor, dur)
			if err != nil {
				g.logger.Warn().Err(err).
					Str("file", filepath.Base(src.path)).
					Dur("start", anchor).
					Msg("skipping window")
				continue
			}

			// without a cut in the window, shift the clip to its
			// calmest frame so it does not start mid-motion
			start := anchor
			if len(stats.Cuts) == 0 && stats.CalmOffset > 0 {
				start = anchor + stats.CalmOffset
				if start+dur > src.duration {
					start = src.duration - dur
				}
			}

			pool = append(pool, selection.Candidate{
				File:     src.path,
				Start:    start,
				Duration: dur,
				Score:    stats.Score,
				Profile:  stats.Profile,
			})
		}
	}

	if len(pool) == 0 {
		return nil, selection.ErrNoCandidates
	}
	return pool, nil
}

// anchors returns candidate window starts for one source: scene cuts
// when detection is on, a fixed stride otherwise.
func (g *Generator) anchors(ctx context.Context, src sourceInfo) []time.Duration {
	var anchors []time.Duration
	if g.opts.SceneDetect {
		cuts, err := g.ffmpeg.DetectScenes(ctx, src.path, g.opts.MinSceneScore)
		if err != nil {
			g.logger.Warn().Err(err).
				Str("file", filepath.Base(src.path)).
				Msg("scene detection failed, falling back to stride")
		} else {
			anchors = append(anchors, 0)
			for _, cut := range cuts {
				if cut > 0 && cut < src.duration {
					anchors = append(anchors, cut)
				}
			}
		}
	}

	if len(anchors) == 0 {
		for off := time.Duration(0); off < src.duration; off += g.opts.ClipDuration {
			anchors = append(anchors, off)
		}
	}

	if len(anchors) > g.opts.MaxPerFile {
		anchors = anchors[:g.opts.MaxPerFile]
	}
	return anchors
}

// realize pushes the plan through the sink: media import, the plain
// timeline, then the marker duplicate. Marker frames are counted at
// the timeline rate; the start of the first clip is never marked.
func (g *Generator) realize(ctx context.Context, plan *Plan) error {
	if err := g.sink.ImportMedia(ctx, uniquePaths(plan.Clips)); err != nil {
		return fmt.Errorf("failed to import media: %w", err)
	}

	if err := g.appendAll(ctx, plan.Name, plan); err != nil {
		return err
	}

	markers := plan.MarkersName()
	if err := g.appendAll(ctx, markers, plan); err != nil {
		return err
	}

	var cum time.Duration
	for i := 0; i < len(plan.Clips)-1; i++ {
		cum += plan.Clips[i].Duration
		frame := util.DurationToFrames(cum, float64(plan.Spec.FPS))
		note := "cut to " + plan.Clips[i+1].Name
		if err := g.sink.AddMarker(ctx, markers, frame, note); err != nil {
			return fmt.Errorf("failed to add marker at frame %d: %w", frame, err)
		}
	}

	if err := g.sink.Flush(ctx); err != nil {
		return fmt.Errorf("failed to apply timeline operations: %w", err)
	}
	return nil
}

func (g *Generator) appendAll(ctx context.Context, name string, plan *Plan) error {
	if err := g.sink.CreateTimeline(ctx, name, plan.Spec); err != nil {
		return fmt.Errorf("failed to create timeline %q: %w", name, err)
	}
	for _, clip := range plan.Clips {
		if err := g.sink.AppendClip(ctx, name, clip); err != nil {
			return fmt.Errorf("failed to append %s to %q: %w", clip.Name, name, err)
		}
	}
	return nil
}

func uniquePaths(clips []PlacedClip) []string {
	seen := make(map[string]bool, len(clips))
	var paths []string
	for _, c := range clips {
		if !seen[c.Path] {
			seen[c.Path] = true
			paths = append(paths, c.Path)
		}
	}
	return paths
}
