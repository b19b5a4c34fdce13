// Package patterns generates projector calibration images.
package patterns

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Calibration fixture dimensions and layout.
const (
	Width        = 1920
	Height       = 1080
	GridSpacing  = 120
	GridStroke   = 2
	CrossStroke  = 4
	MarkerSize   = 60
	RingRadius   = 100
	RingStroke   = 4
	ringSegments = 256
)

var (
	Black = color.NRGBA{0, 0, 0, 255}
	White = color.NRGBA{255, 255, 255, 255}
	Red   = color.NRGBA{255, 0, 0, 255}
	Green = color.NRGBA{0, 255, 0, 255}
	Cyan  = color.NRGBA{0, 255, 255, 255}
)

// Kind names a generator.
type Kind string

const (
	KindCalibration  Kind = "calibration"
	KindCheckerboard Kind = "checkerboard"
	KindColorBars    Kind = "colorbars"
	KindGradient     Kind = "gradient"
	KindCrosshatch   Kind = "crosshatch"
)

// Kinds lists every generator in display order.
var Kinds = []Kind{KindCalibration, KindCheckerboard, KindColorBars, KindGradient, KindCrosshatch}

// Generate renders the named pattern at w×h. Calibration ignores the size.
func Generate(kind Kind, w, h int) (*image.NRGBA, error) {
	switch kind {
	case KindCalibration, "":
		return Calibration(), nil
	case KindCheckerboard:
		return Checkerboard(w, h, 64, White, Black), nil
	case KindColorBars:
		return ColorBars(w, h), nil
	case KindGradient:
		return Gradient(w, h, Horizontal, Black, White), nil
	case KindCrosshatch:
		return Crosshatch(w, h, 40), nil
	}
	return nil, fmt.Errorf("patterns: unknown pattern %q", kind)
}

// Calibration returns the 1920×1080 alignment pattern: black background,
// white 2px grid every 120px, red 4px crosshair through the centre, green
// 60×60 corner squares and a cyan 4px ring of radius 100 at the centre.
// Layers are painted in that order.
func Calibration() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, Width, Height))
	fill(img, img.Bounds(), Black)

	for x := 0; x <= Width; x += GridSpacing {
		vline(img, float64(x), GridStroke, White)
	}
	for y := 0; y <= Height; y += GridSpacing {
		hline(img, float64(y), GridStroke, White)
	}

	vline(img, Width/2, CrossStroke, Red)
	hline(img, Height/2, CrossStroke, Red)

	fill(img, image.Rect(0, 0, MarkerSize, MarkerSize), Green)
	fill(img, image.Rect(Width-MarkerSize, 0, Width, MarkerSize), Green)
	fill(img, image.Rect(0, Height-MarkerSize, MarkerSize, Height), Green)
	fill(img, image.Rect(Width-MarkerSize, Height-MarkerSize, Width, Height), Green)

	ring(img, Width/2, Height/2, RingRadius, RingStroke, Cyan)
	return img
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// vline strokes a vertical line centred on x, covering [x-w/2, x+w/2).
func vline(img *image.NRGBA, x, w float64, c color.NRGBA) {
	x0 := int(math.Floor(x - w/2))
	fill(img, image.Rect(x0, 0, x0+int(w), img.Bounds().Dy()), c)
}

// hline strokes a horizontal line centred on y, covering [y-w/2, y+w/2).
func hline(img *image.NRGBA, y, w float64, c color.NRGBA) {
	y0 := int(math.Floor(y - w/2))
	fill(img, image.Rect(0, y0, img.Bounds().Dx(), y0+int(w)), c)
}

// ring strokes a circle of radius r with the given width as an annulus: the
// outer contour and the reversed inner contour cancel inside.
func ring(img *image.NRGBA, cx, cy, r, w float64, c color.NRGBA) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	circle(z, cx, cy, r+w/2, false)
	circle(z, cx, cy, r-w/2, true)
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

func circle(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	for i := 0; i <= ringSegments; i++ {
		a := 2 * math.Pi * float64(i) / ringSegments
		if reverse {
			a = -a
		}
		x := float32(cx + r*math.Cos(a))
		y := float32(cy + r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// Checkerboard alternates c1 and c2 squares, starting with c1 at the origin.
func Checkerboard(w, h, square int, c1, c2 color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), c2)
	if square <= 0 {
		return img
	}
	for y := 0; y < h; y += square {
		for x := 0; x < w; x += square {
			if (x/square+y/square)%2 == 0 {
				fill(img, image.Rect(x, y, x+square, y+square), c1)
			}
		}
	}
	return img
}

var (
	smpteTop = []color.NRGBA{
		{192, 192, 192, 255}, {192, 192, 0, 255}, {0, 192, 192, 255}, {0, 192, 0, 255},
		{192, 0, 192, 255}, {192, 0, 0, 255}, {0, 0, 192, 255},
	}
	smpteBottom = []color.NRGBA{
		{0, 0, 192, 255}, Black, {192, 0, 192, 255}, Black,
		{0, 192, 192, 255}, Black, {192, 192, 192, 255},
	}
)

// ColorBars returns SMPTE-style bars: seven 75% bars over the top two thirds
// and the reversed castellation row below.
func ColorBars(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), Black)
	barW := w / len(smpteTop)
	split := int(float64(h) * 0.667)
	for i := range smpteTop {
		x := i * barW
		fill(img, image.Rect(x, 0, x+barW, split), smpteTop[i])
		fill(img, image.Rect(x, split, x+barW, h), smpteBottom[i])
	}
	return img
}

// Direction selects the gradient axis.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
	Radial
)

// Gradient interpolates from c1 to c2 along dir. Radial runs from the centre
// to the corners.
func Gradient(w, h int, dir Direction, c1, c2 color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy := w/2, h/2
	maxR := math.Hypot(float64(cx), float64(cy))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var t float64
			switch dir {
			case Horizontal:
				t = float64(x) / float64(w)
			case Vertical:
				t = float64(y) / float64(h)
			case Radial:
				if maxR > 0 {
					t = math.Min(math.Hypot(float64(x-cx), float64(y-cy))/maxR, 1)
				}
			}
			img.SetNRGBA(x, y, lerpColor(c1, c2, t))
		}
	}
	return img
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(p, q uint8) uint8 { return uint8(float64(p) + (float64(q)-float64(p))*t) }
	return color.NRGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), l(a.A, b.A)}
}

// Crosshatch is a fine white grid with red concentric targets at the centre.
func Crosshatch(w, h, spacing int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), Black)
	if spacing > 0 {
		for x := 0; x < w; x += spacing {
			fill(img, image.Rect(x, 0, x+1, h), White)
		}
		for y := 0; y < h; y += spacing {
			fill(img, image.Rect(0, y, w, y+1), White)
		}
	}
	for r := 20.0; r <= 100; r += 20 {
		ring(img, float64(w/2), float64(h/2), r, 2, Red)
	}
	return img
}
