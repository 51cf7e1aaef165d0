package timeline

import (
	"context"
	"time"
)

// Spec fixes the frame geometry of a created timeline.
type Spec struct {
	Width  int
	Height int
	FPS    int
}

// PlacedClip is one clip laid onto a timeline. SourceStart is the
// offset into the source file; FPS is the source frame rate used for
// frame-accurate in/out points.
type PlacedClip struct {
	Path        string
	Name        string
	SourceStart time.Duration
	Duration    time.Duration
	FPS         float64
}

// SourceInFrame is the first source frame of the clip, truncated at
// the clip's own frame rate.
func (c PlacedClip) SourceInFrame() int {
	return int(c.SourceStart.Seconds() * c.FPS)
}

// SourceOutFrame is the source frame just past the clip's end.
func (c PlacedClip) SourceOutFrame() int {
	return int((c.SourceStart + c.Duration).Seconds() * c.FPS)
}

// Sink receives the realized selection. The live implementation talks
// to an editing host; tests record the calls. Operations may be
// buffered until Flush.
type Sink interface {
	CreateTimeline(ctx context.Context, name string, spec Spec) error
	ImportMedia(ctx context.Context, paths []string) error
	AppendClip(ctx context.Context, timeline string, clip PlacedClip) error
	AddMarker(ctx context.Context, timeline string, frame int, note string) error
	Flush(ctx context.Context) error
}
