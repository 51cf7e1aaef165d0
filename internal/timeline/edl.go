package timeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/y-ogi/photos2videos/pkg/util"
)

// WriteEDL renders the plan as a CMX3600 edit decision list so the cut
// can travel to an editor without a live scripting session. All
// timecodes are non-drop at the timeline rate.
func (p *Plan) WriteEDL(w io.Writer) error {
	fps := float64(p.Spec.FPS)
	if fps <= 0 {
		fps = 24
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", p.Name)
	b.WriteString("FCM: NON-DROP FRAME\n\n")

	var record time.Duration
	for i, clip := range p.Clips {
		srcIn := util.Timecode(clip.SourceStart, fps)
		srcOut := util.Timecode(clip.SourceStart+clip.Duration, fps)
		recIn := util.Timecode(record, fps)
		recOut := util.Timecode(record+clip.Duration, fps)

		fmt.Fprintf(&b, "%03d  %-8s %-5s C        %s %s %s %s\n",
			i+1, "AX", "V", srcIn, srcOut, recIn, recOut)
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", clip.Name)
		fmt.Fprintf(&b, "* SOURCE FILE:  %s\n", clip.Path)

		record += clip.Duration
	}

	_, err := io.WriteString(w, b.String())
	return err
}
