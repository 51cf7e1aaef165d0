package analysis

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/ffmpeg"
)

func solid(c color.NRGBA, w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gray(v uint8) image.Image {
	return solid(color.NRGBA{v, v, v, 255}, 16, 16)
}

func frameSeq(interval time.Duration, imgs ...image.Image) []ffmpeg.Frame {
	frames := make([]ffmpeg.Frame, len(imgs))
	for i, img := range imgs {
		frames[i] = ffmpeg.Frame{Time: time.Duration(i) * interval, Image: img}
	}
	return frames
}

func TestScoreFramesEmpty(t *testing.T) {
	if _, err := ScoreFrames(nil, DefaultWeights(), 0.3); err == nil {
		t.Fatal("expected error for empty frame list")
	}
}

func TestScoreFramesMotionRaisesScore(t *testing.T) {
	static := frameSeq(500*time.Millisecond, gray(128), gray(128), gray(128), gray(128))
	moving := frameSeq(500*time.Millisecond, gray(96), gray(160), gray(96), gray(160))

	s1, err := ScoreFrames(static, DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := ScoreFrames(moving, DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}

	if s2.Score <= s1.Score {
		t.Errorf("moving frames scored %.3f, static %.3f; want moving higher", s2.Score, s1.Score)
	}
	if s1.Profile.Motion != 0 {
		t.Errorf("static motion = %.3f, want 0", s1.Profile.Motion)
	}
	if s2.Profile.Motion != 1 {
		t.Errorf("full-swing motion = %.3f, want saturated at 1", s2.Profile.Motion)
	}
}

func TestScoreFramesColorRaisesScore(t *testing.T) {
	red := solid(color.NRGBA{255, 0, 0, 255}, 16, 16)
	plain := frameSeq(time.Second, gray(128), gray(128))
	vivid := frameSeq(time.Second, red, red)

	s1, err := ScoreFrames(plain, DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := ScoreFrames(vivid, DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}

	if s2.Score <= s1.Score {
		t.Errorf("vivid frames scored %.3f, plain %.3f; want vivid higher", s2.Score, s1.Score)
	}
}

func TestScoreFramesProfile(t *testing.T) {
	red := solid(color.NRGBA{255, 0, 0, 255}, 16, 16)
	stats, err := ScoreFrames(frameSeq(time.Second, red, red), DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}

	p := stats.Profile
	if math.Abs(p.R-1) > 0.01 || p.G > 0.01 || p.B > 0.01 {
		t.Errorf("red profile = %+v", p)
	}
	if p.Motion != 0 {
		t.Errorf("motion = %.3f, want 0", p.Motion)
	}
}

func TestScoreFramesClamped(t *testing.T) {
	red := solid(color.NRGBA{255, 0, 0, 255}, 16, 16)
	blue := solid(color.NRGBA{0, 0, 255, 255}, 16, 16)
	heavy := Weights{Motion: 2, Colorfulness: 2, Contrast: 2}

	stats, err := ScoreFrames(frameSeq(time.Second, red, blue, red, blue), heavy, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Score != 1 {
		t.Errorf("score = %.3f, want clamped to 1", stats.Score)
	}
}

func TestScoreFramesDetectsCut(t *testing.T) {
	interval := 500 * time.Millisecond
	frames := frameSeq(interval,
		gray(20), gray(20), gray(20), gray(20),
		gray(220), gray(220), gray(220), gray(220),
	)

	stats, err := ScoreFrames(frames, DefaultWeights(), 0.3)
	if err != nil {
		t.Fatal(err)
	}

	if len(stats.Cuts) != 1 {
		t.Fatalf("cuts = %v, want exactly one", stats.Cuts)
	}
	// the cut lands on the first bright frame, one stride after 1.5s
	if stats.Cuts[0] != 2*time.Second {
		t.Errorf("cut at %v, want 2s", stats.Cuts[0])
	}
}

func TestScoreFramesCalmOffset(t *testing.T) {
	interval := 500 * time.Millisecond
	frames := frameSeq(interval,
		gray(200), gray(80), gray(82), gray(84), gray(190),
	)

	stats, err := ScoreFrames(frames, DefaultWeights(), 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if stats.CalmOffset != time.Second {
		t.Errorf("calm offset = %v, want 1s (quietest stretch)", stats.CalmOffset)
	}
}

func TestSimilarity(t *testing.T) {
	red := Profile{R: 1}
	nearRed := Profile{R: 0.9, G: 0.1}
	blue := Profile{B: 1}

	if s := Similarity(red, red); s != 1 {
		t.Errorf("self similarity = %.3f, want 1", s)
	}
	if Similarity(red, nearRed) <= Similarity(red, blue) {
		t.Error("near-red should be more similar to red than blue is")
	}
	if s := Similarity(red, blue); s < 0 || s > 1 {
		t.Errorf("similarity out of range: %.3f", s)
	}
}

func TestDiversityPenalty(t *testing.T) {
	red := Profile{R: 1}
	blue := Profile{B: 1}

	if p := DiversityPenalty(red, []Profile{blue}, 0); p != 0 {
		t.Errorf("zero weight penalty = %.3f", p)
	}
	if p := DiversityPenalty(red, nil, 1); p != 0 {
		t.Errorf("empty selection penalty = %.3f", p)
	}
	if p := DiversityPenalty(red, []Profile{red}, 1); p != 1 {
		t.Errorf("duplicate penalty = %.3f, want 1", p)
	}

	full := DiversityPenalty(red, []Profile{red, blue}, 1)
	half := DiversityPenalty(red, []Profile{red, blue}, 0.5)
	if math.Abs(half-full/2) > 1e-9 {
		t.Errorf("penalty should scale with weight: %.3f vs %.3f", half, full)
	}
}

type stubSampler struct {
	opts   ffmpeg.SampleOptions
	frames []ffmpeg.Frame
	err    error
}

func (s *stubSampler) SampleFrames(ctx context.Context, opts ffmpeg.SampleOptions) ([]ffmpeg.Frame, error) {
	s.opts = opts
	return s.frames, s.err
}

func TestAnalyzePassesWindow(t *testing.T) {
	stub := &stubSampler{
		frames: frameSeq(250*time.Millisecond, gray(100), gray(140), gray(100)),
	}
	a := &Analyzer{
		ffmpeg:       stub,
		logger:       zerolog.Nop(),
		weights:      DefaultWeights(),
		interval:     250 * time.Millisecond,
		cutThreshold: 0.3,
	}

	stats, err := a.Analyze(context.Background(), "in.mp4", 3*time.Second, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Score <= 0 {
		t.Errorf("score = %.3f, want positive for moving frames", stats.Score)
	}

	if stub.opts.Input != "in.mp4" || stub.opts.Start != 3*time.Second ||
		stub.opts.Window != 5*time.Second || stub.opts.Interval != 250*time.Millisecond {
		t.Errorf("sample options = %+v", stub.opts)
	}
}

func TestAnalyzeSampleFailure(t *testing.T) {
	stub := &stubSampler{err: os.ErrNotExist}
	a := &Analyzer{
		ffmpeg:       stub,
		logger:       zerolog.Nop(),
		weights:      DefaultWeights(),
		interval:     250 * time.Millisecond,
		cutThreshold: 0.3,
	}

	if _, err := a.Analyze(context.Background(), "gone.mp4", 0, time.Second); err == nil {
		t.Fatal("expected sampling error to propagate")
	}
}
