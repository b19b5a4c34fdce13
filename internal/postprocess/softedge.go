package postprocess

import (
	"image"
	"math"

	"projmap/internal/optics"
)

// ApplySoftEdge returns a copy of img with the blend falloff of s applied:
// inside each side's band the colour is scaled by (d/band)^(1/gamma), where d
// is the distance from that edge. Alpha is untouched.
func ApplySoftEdge(img *image.NRGBA, s optics.SoftEdge) *image.NRGBA {
	s = s.Clamp()
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	if s.IsZero() {
		return out
	}

	inv := 1 / s.Gamma
	colRamp := make([]float64, w)
	for x := range colRamp {
		colRamp[x] = ramp(float64(x)+0.5, s.Left/100*float64(w), inv) *
			ramp(float64(w-x)-0.5, s.Right/100*float64(w), inv)
	}
	for y := 0; y < h; y++ {
		fy := ramp(float64(y)+0.5, s.Top/100*float64(h), inv) *
			ramp(float64(h-y)-0.5, s.Bottom/100*float64(h), inv)
		row := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			f := fy * colRamp[x]
			if f >= 1 {
				continue
			}
			i := x * 4
			row[i] = clamp8(float64(row[i]) * f)
			row[i+1] = clamp8(float64(row[i+1]) * f)
			row[i+2] = clamp8(float64(row[i+2]) * f)
		}
	}
	return out
}

// ramp is 1 outside the band and rises from 0 at the edge inside it.
func ramp(d, band, inv float64) float64 {
	if band <= 0 || d >= band {
		return 1
	}
	return math.Pow(math.Max(d, 0)/band, inv)
}
