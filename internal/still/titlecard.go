package still

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RenderTitleCard draws white centered text on a black frame. The font size
// scales with frame height so 4K and proxy resolutions render alike.
func RenderTitleCard(text string, width, height int) (*image.NRGBA, error) {
	width, height = even(width), even(height)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("title card size %dx%d is invalid", width, height)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse title font: %w", err)
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(height) / 10,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create title face: %w", err)
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: face,
	}

	advance := drawer.MeasureString(text)
	metrics := face.Metrics()
	drawer.Dot = fixed.Point26_6{
		X: (fixed.I(width) - advance) / 2,
		Y: fixed.I(height)/2 + (metrics.Ascent-metrics.Descent)/2,
	}
	drawer.DrawString(text)

	return canvas, nil
}
