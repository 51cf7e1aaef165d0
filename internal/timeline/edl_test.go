package timeline

import (
	"strings"
	"testing"
	"time"
)

func TestWriteEDL(t *testing.T) {
	plan := &Plan{
		Name: "Test Cut",
		Spec: Spec{Width: 3840, Height: 2160, FPS: 24},
		Clips: []PlacedClip{
			{Path: "/media/a.mp4", Name: "a.mp4", SourceStart: 10 * time.Second, Duration: 5 * time.Second, FPS: 30},
			{Path: "/media/b.mp4", Name: "b.mp4", SourceStart: 0, Duration: 5 * time.Second, FPS: 30},
		},
	}

	var b strings.Builder
	if err := plan.WriteEDL(&b); err != nil {
		t.Fatalf("WriteEDL failed: %v", err)
	}

	want := "TITLE: Test Cut\n" +
		"FCM: NON-DROP FRAME\n" +
		"\n" +
		"001  AX       V     C        00:00:10:00 00:00:15:00 00:00:00:00 00:00:05:00\n" +
		"* FROM CLIP NAME:  a.mp4\n" +
		"* SOURCE FILE:  /media/a.mp4\n" +
		"002  AX       V     C        00:00:00:00 00:00:05:00 00:00:05:00 00:00:10:00\n" +
		"* FROM CLIP NAME:  b.mp4\n" +
		"* SOURCE FILE:  /media/b.mp4\n"

	if got := b.String(); got != want {
		t.Errorf("EDL mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteEDLRecordRunsContinuously(t *testing.T) {
	plan := &Plan{
		Name: "Long Cut",
		Spec: Spec{FPS: 24},
		Clips: []PlacedClip{
			{Path: "/m/x.mp4", Name: "x.mp4", Duration: 90 * time.Second},
			{Path: "/m/y.mp4", Name: "y.mp4", Duration: 30 * time.Second},
			{Path: "/m/z.mp4", Name: "z.mp4", Duration: 45 * time.Second},
		},
	}

	var b strings.Builder
	if err := plan.WriteEDL(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	// record side rolls forward without gaps, past the minute boundary
	for _, tc := range []string{
		"00:00:00:00 00:01:30:00",
		"00:01:30:00 00:02:00:00",
		"00:02:00:00 00:02:45:00",
	} {
		if !strings.Contains(out, tc) {
			t.Errorf("missing record span %q in:\n%s", tc, out)
		}
	}
}
