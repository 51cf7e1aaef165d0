package still

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

const (
	// backdropScale overscales the fill layer so the blur never shows edges
	backdropScale = 1.5
	backdropSigma = 30
)

// Load opens a photo with any EXIF orientation applied
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes a composed frame to disk
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame %s: %w", path, err)
	}

	return f.Close()
}

// Compose scales a photo into the target frame. Sources whose aspect ratio
// differs from the frame are placed over a blurred, overscaled copy of the
// same photo so no black bars appear.
func Compose(src image.Image, width, height int) (*image.NRGBA, error) {
	width, height = even(width), even(height)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("target size %dx%d is invalid", width, height)
	}

	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	fitW, fitH := fitSize(srcW, srcH, width, height)
	fitted := resize.Resize(uint(fitW), uint(fitH), src, resize.Lanczos3)

	// An exact-aspect source needs no backdrop
	if fitW == width && fitH == height {
		return imaging.Clone(fitted), nil
	}

	coverW, coverH := coverSize(srcW, srcH, width, height)
	backdrop := resize.Resize(uint(coverW), uint(coverH), src, resize.Lanczos3)
	canvas := imaging.CropCenter(imaging.Blur(backdrop, backdropSigma), width, height)

	offset := image.Pt((width-fitW)/2, (height-fitH)/2)
	rect := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(fitW, fitH))}
	draw.Draw(canvas, rect, fitted, fitted.Bounds().Min, draw.Src)

	return canvas, nil
}

// even rounds down to an even dimension, as yuv420p encoding requires
func even(n int) int {
	return (n / 2) * 2
}

// fitSize is the largest even-sided box of the source aspect that fits the frame
func fitSize(srcW, srcH, dstW, dstH int) (int, int) {
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)

	if srcAspect > dstAspect {
		return even(dstW), even(int(float64(dstW) / srcAspect))
	}
	return even(int(float64(dstH) * srcAspect)), even(dstH)
}

// coverSize is an even-sided box of the source aspect covering the frame
// with backdropScale headroom on the limiting side
func coverSize(srcW, srcH, dstW, dstH int) (int, int) {
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)

	if srcAspect > dstAspect {
		h := float64(dstH) * backdropScale
		return even(int(h * srcAspect)), even(int(h))
	}
	w := float64(dstW) * backdropScale
	return even(int(w)), even(int(w / srcAspect))
}
