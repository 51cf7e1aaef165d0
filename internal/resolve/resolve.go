package resolve

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/timeline"
)

//go:embed driver.py
var driverScript string

// ErrHostUnreachable means no live scripting session answered.
var ErrHostUnreachable = errors.New("editing host is not reachable")

// 8 KB tail of driver stderr kept for diagnostics
const maxStderrBytes = 8 * 1024

// Options configure the host bridge.
type Options struct {
	// Python is the interpreter binary; empty auto-detects python3/python.
	Python string
	// Timeout bounds one whole Flush.
	Timeout time.Duration
	// BinPrefix names the media pool bin; a timestamp and short id are
	// appended so reruns never collide.
	BinPrefix string
}

// Sink implements timeline.Sink against a running DaVinci Resolve.
// Calls buffer into a plan; Flush hands the whole plan to an embedded
// driver script in a single scripting session.
type Sink struct {
	logger  zerolog.Logger
	python  string
	timeout time.Duration
	plan    driverPlan
}

type driverPlan struct {
	Bin       string           `json:"bin"`
	Media     []string         `json:"media"`
	Timelines []driverTimeline `json:"timelines"`
}

type driverTimeline struct {
	Name    string         `json:"name"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	FPS     int            `json:"fps"`
	Clips   []driverClip   `json:"clips"`
	Markers []driverMarker `json:"markers"`
}

type driverClip struct {
	Path      string `json:"path"`
	SourceIn  int    `json:"source_in"`
	SourceOut int    `json:"source_out"`
}

type driverMarker struct {
	Frame int    `json:"frame"`
	Note  string `json:"note"`
}

type driverReport struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Imported  int    `json:"imported"`
	Timelines int    `json:"timelines"`
}

// NewSink resolves the python interpreter and prepares a session bin.
func NewSink(logger zerolog.Logger, opts Options) (*Sink, error) {
	python, err := resolvePython(opts.Python)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.BinPrefix == "" {
		opts.BinPrefix = "Random Clips"
	}

	bin := fmt.Sprintf("%s %s %s",
		opts.BinPrefix,
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])

	return &Sink{
		logger:  logger.With().Str("component", "resolve").Logger(),
		python:  python,
		timeout: opts.Timeout,
		plan:    driverPlan{Bin: bin},
	}, nil
}

func (s *Sink) CreateTimeline(ctx context.Context, name string, spec timeline.Spec) error {
	s.plan.Timelines = append(s.plan.Timelines, driverTimeline{
		Name:   name,
		Width:  spec.Width,
		Height: spec.Height,
		FPS:    spec.FPS,
	})
	return nil
}

func (s *Sink) ImportMedia(ctx context.Context, paths []string) error {
	s.plan.Media = append(s.plan.Media, paths...)
	return nil
}

func (s *Sink) AppendClip(ctx context.Context, tl string, clip timeline.PlacedClip) error {
	t := s.timelineByName(tl)
	if t == nil {
		return fmt.Errorf("unknown timeline %q", tl)
	}
	t.Clips = append(t.Clips, driverClip{
		Path:      clip.Path,
		SourceIn:  clip.SourceInFrame(),
		SourceOut: clip.SourceOutFrame(),
	})
	return nil
}

func (s *Sink) AddMarker(ctx context.Context, tl string, frame int, note string) error {
	t := s.timelineByName(tl)
	if t == nil {
		return fmt.Errorf("unknown timeline %q", tl)
	}
	t.Markers = append(t.Markers, driverMarker{Frame: frame, Note: note})
	return nil
}

func (s *Sink) timelineByName(name string) *driverTimeline {
	for i := range s.plan.Timelines {
		if s.plan.Timelines[i].Name == name {
			return &s.plan.Timelines[i]
		}
	}
	return nil
}

// Flush executes the buffered plan in one driver run. The buffer is
// cleared only on success.
func (s *Sink) Flush(ctx context.Context) error {
	if len(s.plan.Timelines) == 0 {
		return nil
	}

	payload, err := json.Marshal(s.plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	script, cleanup, err := writeDriver()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, s.python, script)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	s.logger.Info().
		Str("bin", s.plan.Bin).
		Int("media", len(s.plan.Media)).
		Int("timelines", len(s.plan.Timelines)).
		Msg("driving editing host")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("host session timed out: %w", ctx.Err())
		}
		return fmt.Errorf("driver failed: %w, stderr: %s", err, stderrBuf.String())
	}

	var report driverReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		return fmt.Errorf("unreadable driver report %q: %w", stdout.String(), err)
	}
	if !report.OK {
		if report.Error == "unreachable" {
			return fmt.Errorf("%s: %w", report.Detail, ErrHostUnreachable)
		}
		return fmt.Errorf("host rejected the plan: %s", report.Detail)
	}

	s.logger.Info().
		Int("imported", report.Imported).
		Int("timelines", report.Timelines).
		Msg("timeline plan applied")

	s.plan.Media = nil
	s.plan.Timelines = nil
	return nil
}

func writeDriver() (string, func(), error) {
	f, err := os.CreateTemp("", "photos2videos-driver-*.py")
	if err != nil {
		return "", nil, fmt.Errorf("failed to write driver script: %w", err)
	}
	if _, err := f.WriteString(driverScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write driver script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// resolvePython finds a usable interpreter for the scripting bridge.
func resolvePython(preferred string) (string, error) {
	if preferred != "" {
		p, err := exec.LookPath(preferred)
		if err != nil {
			return "", fmt.Errorf("configured python %q not found: %w", preferred, err)
		}
		return p, nil
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no python binary found on PATH (tried python3, python)")
}

// limitedWriter keeps only the last limit bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
