package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/ffmpeg"
)

// typical inter-frame luma delta for active footage; deltas at or
// above this count as full motion
const motionScale = 32.0

// Weights for the visual interest factors
type Weights struct {
	Motion       float64
	Colorfulness float64
	Contrast     float64
}

// DefaultWeights favors movement over static prettiness
func DefaultWeights() Weights {
	return Weights{
		Motion:       0.5,
		Colorfulness: 0.3,
		Contrast:     0.2,
	}
}

// Profile summarizes how a candidate clip looks, for diversity
// comparison against already-selected clips. Channels and motion are
// normalized to [0,1].
type Profile struct {
	R, G, B float64
	Motion  float64
}

// ClipStats is the result of analyzing one candidate window.
// CalmOffset and Cuts are offsets from the start of the window.
type ClipStats struct {
	Score      float64
	Profile    Profile
	CalmOffset time.Duration
	Cuts       []time.Duration
}

type sampler interface {
	SampleFrames(ctx context.Context, opts ffmpeg.SampleOptions) ([]ffmpeg.Frame, error)
}

// Analyzer scores candidate windows by sampling frames and measuring
// motion and color statistics on them.
type Analyzer struct {
	ffmpeg  sampler
	logger  zerolog.Logger
	weights Weights

	interval     time.Duration
	cutThreshold float64
	scaleWidth   int
}

// Options tune the analyzer. Zero values fall back to defaults.
type Options struct {
	Weights Weights
	// Interval is the frame sampling stride within a window.
	Interval time.Duration
	// CutThreshold is the normalized inter-frame difference, in [0,1],
	// that flags a hard cut.
	CutThreshold float64
	ScaleWidth   int
}

// NewAnalyzer creates a frame-statistics analyzer
func NewAnalyzer(logger zerolog.Logger, exec *ffmpeg.Executor, opts Options) *Analyzer {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.CutThreshold <= 0 {
		opts.CutThreshold = 0.3
	}
	return &Analyzer{
		ffmpeg:       exec,
		logger:       logger.With().Str("component", "analysis").Logger(),
		weights:      opts.Weights,
		interval:     opts.Interval,
		cutThreshold: opts.CutThreshold,
		scaleWidth:   opts.ScaleWidth,
	}
}

// Analyze samples frames across the window starting at start and
// scores them.
func (a *Analyzer) Analyze(ctx context.Context, file string, start, window time.Duration) (*ClipStats, error) {
	frames, err := a.ffmpeg.SampleFrames(ctx, ffmpeg.SampleOptions{
		Input:      file,
		Start:      start,
		Window:     window,
		Interval:   a.interval,
		ScaleWidth: a.scaleWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", file, err)
	}

	stats, err := ScoreFrames(frames, a.weights, a.cutThreshold)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("file", file).
		Dur("start", start).
		Float64("score", stats.Score).
		Dur("calm", stats.CalmOffset).
		Int("cuts", len(stats.Cuts)).
		Msg("window analyzed")

	return stats, nil
}

// ScoreFrames computes visual interest statistics over sampled frames.
func ScoreFrames(frames []ffmpeg.Frame, w Weights, cutThreshold float64) (*ClipStats, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to analyze")
	}

	stats := make([]frameStats, len(frames))
	for i, f := range frames {
		if f.Image == nil {
			return nil, fmt.Errorf("frame %d has no image data", i)
		}
		stats[i] = computeStats(f.Image)
	}

	// mean absolute luma delta per adjacent pair, 0-255 scale
	deltas := make([]float64, 0, len(stats)-1)
	for i := 1; i < len(stats); i++ {
		deltas = append(deltas, lumaDelta(stats[i-1], stats[i]))
	}

	var motionSum float64
	for _, d := range deltas {
		motionSum += math.Min(1.0, d/motionScale)
	}
	motion := 0.0
	if len(deltas) > 0 {
		motion = motionSum / float64(len(deltas))
	}

	var colorSum, contrastSum, rSum, gSum, bSum float64
	for _, s := range stats {
		colorSum += s.colorfulness
		contrastSum += s.contrast
		rSum += s.r
		gSum += s.g
		bSum += s.b
	}
	n := float64(len(stats))

	score := w.Motion*motion + w.Colorfulness*(colorSum/n) + w.Contrast*(contrastSum/n)

	result := &ClipStats{
		Score: clamp01(score),
		Profile: Profile{
			R:      rSum / n / 255.0,
			G:      gSum / n / 255.0,
			B:      bSum / n / 255.0,
			Motion: motion,
		},
		CalmOffset: frames[calmIndex(deltas)].Time - frames[0].Time,
	}

	// a cut is a full-range delta above the caller threshold
	for i, d := range deltas {
		if d/255.0 > cutThreshold {
			result.Cuts = append(result.Cuts, frames[i+1].Time-frames[0].Time)
		}
	}

	return result, nil
}

// calmIndex returns the frame index with the least motion around it.
func calmIndex(deltas []float64) int {
	if len(deltas) == 0 {
		return 0
	}

	local := func(i int) float64 {
		switch {
		case i == 0:
			return deltas[0]
		case i == len(deltas):
			return deltas[len(deltas)-1]
		default:
			return (deltas[i-1] + deltas[i]) / 2
		}
	}

	best := 0
	bestMotion := local(0)
	for i := 1; i <= len(deltas); i++ {
		if m := local(i); m < bestMotion {
			best = i
			bestMotion = m
		}
	}
	return best
}

// Similarity measures how alike two clip profiles look, in [0,1].
// 1 means visually near-identical.
func Similarity(a, b Profile) float64 {
	dr := a.R - b.R
	dg := a.G - b.G
	db := a.B - b.B
	colorDist := math.Sqrt((dr*dr + dg*dg + db*db) / 3)
	motionDist := math.Abs(a.Motion - b.Motion)

	return clamp01(1 - (0.7*colorDist + 0.3*motionDist))
}

// DiversityPenalty scores how much the candidate resembles the closest
// already-selected profile, scaled by the diversity weight in [0,1].
func DiversityPenalty(candidate Profile, selected []Profile, weight float64) float64 {
	if weight <= 0 || len(selected) == 0 {
		return 0
	}

	maxSim := 0.0
	for _, p := range selected {
		if s := Similarity(candidate, p); s > maxSim {
			maxSim = s
		}
	}
	return clamp01(weight * maxSim)
}
