package analysis

import (
	"image"
	"math"
)

// frameStats holds the per-frame statistics the scorer works from.
// Channel means and luma are on the 0-255 scale.
type frameStats struct {
	luma []float64
	w, h int

	lumaMean     float64
	contrast     float64
	colorfulness float64
	r, g, b      float64
}

// computeStats runs a single pass over the image and keeps the luma
// plane for inter-frame comparison.
func computeStats(img image.Image) frameStats {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := float64(w * h)

	s := frameStats{
		luma: make([]float64, 0, w*h),
		w:    w,
		h:    h,
	}

	var rSum, gSum, bSum float64
	var lumSum, lumSqSum float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rf := float64(r >> 8)
			gf := float64(g >> 8)
			bf := float64(b >> 8)

			rSum += rf
			gSum += gf
			bSum += bf

			lum := 0.299*rf + 0.587*gf + 0.114*bf
			lumSum += lum
			lumSqSum += lum * lum
			s.luma = append(s.luma, lum)
		}
	}

	s.r = rSum / pixels
	s.g = gSum / pixels
	s.b = bSum / pixels
	s.lumaMean = lumSum / pixels

	variance := (lumSqSum / pixels) - (s.lumaMean * s.lumaMean)
	if variance < 0 {
		variance = 0
	}
	stdDev := math.Sqrt(variance)
	// typical stddev 0-60
	s.contrast = math.Min(1.0, stdDev/60.0)

	// higher divergence between channel means = more colorful
	divergence := math.Abs(s.r-s.g) + math.Abs(s.g-s.b) + math.Abs(s.b-s.r)
	s.colorfulness = math.Min(1.0, divergence/255.0)

	return s
}

// lumaDelta is the mean absolute luma difference between two frames,
// on the 0-255 scale. Frames of different sizes compare over the
// overlapping region.
func lumaDelta(a, b frameStats) float64 {
	w := a.w
	if b.w < w {
		w = b.w
	}
	h := a.h
	if b.h < h {
		h = b.h
	}
	if w == 0 || h == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += math.Abs(a.luma[y*a.w+x] - b.luma[y*b.w+x])
		}
	}
	return sum / float64(w*h)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
