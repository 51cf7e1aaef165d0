package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/y-ogi/photos2videos/internal/timeline"
)

func clearScriptingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envScriptAPI, envScriptLib, envPythonPath} {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}
}

func TestCheckEnv(t *testing.T) {
	t.Setenv(envScriptAPI, "/opt/resolve/Developer/Scripting")
	t.Setenv(envScriptLib, "/opt/resolve/libs/Fusion/fusionscript.so")
	t.Setenv(envPythonPath, "/opt/resolve/Developer/Scripting/Modules")

	if err := CheckEnv(); err != nil {
		t.Fatalf("fully configured env rejected: %v", err)
	}

	t.Setenv(envScriptLib, "")
	err := CheckEnv()
	if !errors.Is(err, ErrEnvMissing) {
		t.Fatalf("err = %v, want ErrEnvMissing", err)
	}
	if !strings.Contains(err.Error(), envScriptLib) {
		t.Errorf("error %q does not name the missing variable", err)
	}
}

func TestLoadEnvFromFile(t *testing.T) {
	clearScriptingEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := envScriptAPI + "=/opt/resolve/Developer/Scripting\n" +
		envScriptLib + "=/opt/resolve/libs/Fusion/fusionscript.so\n" +
		envPythonPath + "=/opt/resolve/Developer/Scripting/Modules\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnv(envFile); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if got := os.Getenv(envScriptAPI); got != "/opt/resolve/Developer/Scripting" {
		t.Errorf("%s = %q after load", envScriptAPI, got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for an explicit env file that does not exist")
	}
}

func TestLoadEnvUnconfigured(t *testing.T) {
	clearScriptingEnv(t)
	if err := LoadEnv(""); !errors.Is(err, ErrEnvMissing) {
		t.Fatalf("err = %v, want ErrEnvMissing", err)
	}
}

func testSink() *Sink {
	return &Sink{
		logger:  zerolog.Nop(),
		timeout: 30 * time.Second,
		plan:    driverPlan{Bin: "Test Bin"},
	}
}

func TestPlanBuffering(t *testing.T) {
	ctx := context.Background()
	s := testSink()

	spec := timeline.Spec{Width: 3840, Height: 2160, FPS: 24}
	if err := s.CreateTimeline(ctx, "Main", spec); err != nil {
		t.Fatal(err)
	}
	if err := s.ImportMedia(ctx, []string{"/m/a.mp4", "/m/b.mp4"}); err != nil {
		t.Fatal(err)
	}
	clip := timeline.PlacedClip{
		Path:        "/m/a.mp4",
		Name:        "a.mp4",
		SourceStart: 2 * time.Second,
		Duration:    3 * time.Second,
		FPS:         25,
	}
	if err := s.AppendClip(ctx, "Main", clip); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMarker(ctx, "Main", 120, "cut to b.mp4"); err != nil {
		t.Fatal(err)
	}

	if err := s.AppendClip(ctx, "Ghost", clip); err == nil {
		t.Error("appending to an uncreated timeline should fail")
	}
	if err := s.AddMarker(ctx, "Ghost", 1, "x"); err == nil {
		t.Error("marking an uncreated timeline should fail")
	}

	payload, err := json.Marshal(s.plan)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"bin":"Test Bin","media":["/m/a.mp4","/m/b.mp4"],` +
		`"timelines":[{"name":"Main","width":3840,"height":2160,"fps":24,` +
		`"clips":[{"path":"/m/a.mp4","source_in":50,"source_out":125}],` +
		`"markers":[{"frame":120,"note":"cut to b.mp4"}]}]}`
	if string(payload) != want {
		t.Errorf("plan JSON:\n%s\nwant:\n%s", payload, want)
	}
}

func TestFlushNothingBuffered(t *testing.T) {
	s := testSink()
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("empty flush should be a no-op, got %v", err)
	}
}

func skipIfNoPython(t *testing.T) string {
	t.Helper()
	p, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return p
}

func TestFlushWithoutHostReportsUnreachable(t *testing.T) {
	python := skipIfNoPython(t)
	clearScriptingEnv(t)

	s := testSink()
	s.python = python

	ctx := context.Background()
	if err := s.CreateTimeline(ctx, "Main", timeline.Spec{Width: 1920, Height: 1080, FPS: 24}); err != nil {
		t.Fatal(err)
	}
	if err := s.ImportMedia(ctx, []string{"/m/a.mp4"}); err != nil {
		t.Fatal(err)
	}

	err := s.Flush(ctx)
	if !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("err = %v, want ErrHostUnreachable", err)
	}
}

func TestFlushDriverCrash(t *testing.T) {
	if _, err := os.Stat("/bin/false"); err != nil {
		t.Skip("/bin/false not available")
	}

	s := testSink()
	s.python = "/bin/false"

	ctx := context.Background()
	if err := s.CreateTimeline(ctx, "Main", timeline.Spec{FPS: 24}); err != nil {
		t.Fatal(err)
	}

	err := s.Flush(ctx)
	if err == nil {
		t.Fatal("expected an error from a crashing driver")
	}
	if errors.Is(err, ErrHostUnreachable) {
		t.Errorf("crash mapped to ErrHostUnreachable: %v", err)
	}
}

func TestNewSinkBinNaming(t *testing.T) {
	skipIfNoPython(t)

	s, err := NewSink(zerolog.Nop(), Options{Python: "python3", BinPrefix: "Test"})
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Fields(s.plan.Bin)
	if len(parts) != 3 || parts[0] != "Test" {
		t.Fatalf("bin = %q, want prefix + timestamp + id", s.plan.Bin)
	}
	if len(parts[2]) != 8 {
		t.Errorf("bin id = %q, want 8 chars", parts[2])
	}

	again, err := NewSink(zerolog.Nop(), Options{Python: "python3", BinPrefix: "Test"})
	if err != nil {
		t.Fatal(err)
	}
	if again.plan.Bin == s.plan.Bin {
		t.Error("two sinks share a bin name")
	}
}
