package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor, verifying both binaries are present
func New(logger zerolog.Logger, threads int) (*Executor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     threads,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "info"}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", strconv.Itoa(e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newLineTail(16)

	var wg sync.WaitGroup
	wg.Add(2)

	// stderr carries both the progress stream and the log output
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts, tail)
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w, output: %s", err, tail.String())
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses ffmpeg stderr, splitting progress keys from log lines
func (e *Executor) streamOutput(r io.Reader, opts RunOptions, tail *lineTail) {
	scanner := bufio.NewScanner(r)
	progress := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, isKV := strings.Cut(line, "=")
		if isKV {
			switch key {
			case "frame":
				progress.Frame, _ = strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				continue
			case "fps":
				progress.FPS, _ = strconv.ParseFloat(strings.TrimSpace(value), 64)
				continue
			case "bitrate":
				progress.Bitrate = strings.TrimSpace(value)
				continue
			case "out_time_us", "out_time_ms":
				// both keys report microseconds
				if us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
					progress.OutTime = time.Duration(us) * time.Microsecond
				}
				continue
			case "speed":
				progress.Speed = strings.TrimSpace(value)
				continue
			case "progress":
				if opts.ProgressHandler != nil && progress.Frame > 0 {
					opts.ProgressHandler(progress)
				}
				progress = &Progress{}
				continue
			}
		}

		tail.Append(line)
		if opts.LogHandler != nil {
			opts.LogHandler(line)
		}
	}
}

// lineTail keeps the last n log lines for error reporting
type lineTail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLineTail(max int) *lineTail {
	return &lineTail{max: max}
}

func (t *lineTail) Append(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
