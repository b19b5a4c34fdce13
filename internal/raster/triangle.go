package raster

import (
	"image"
	"image/color"
	"math"
)

// Vertex is a screen-space vertex after the perspective divide. Pixel
// coordinates have their origin at the top-left corner.
type Vertex struct {
	X, Y float64
	InvW float64 // 1/clip-w; linear in screen space
	U, V float64
}

// Material describes how a triangle or line is filled.
type Material struct {
	Texture *image.NRGBA
	Color   color.NRGBA
	Unlit   bool    // write the texel/colour unchanged
	Shade   float64 // lighting scalar applied in linear space when lit
}

// DrawTriangle rasterizes a triangle with perspective-correct texture
// coordinates and a 1/w depth test. Both windings are filled.
//
// Hot path: no allocation in the inner loop.
func DrawTriangle(fb *FrameBuffer, v [3]Vertex, m *Material) {
	x0, y0 := v[0].X, v[0].Y
	x1, y1 := v[1].X, v[1].Y
	x2, y2 := v[2].X, v[2].Y

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))
	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	hasUV := m.Texture != nil
	iw0, iw1, iw2 := v[0].InvW, v[1].InvW, v[2].InvW
	uw0, uw1, uw2 := v[0].U*iw0, v[1].U*iw1, v[2].U*iw2
	vw0, vw1, vw2 := v[0].V*iw0, v[1].V*iw1, v[2].V*iw2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -1e-9 || w1 < -1e-9 || w2 < -1e-9 {
				continue
			}

			iw := w0*iw0 + w1*iw1 + w2*iw2
			zIdx := rowOff + sx
			if iw <= fb.ZBuf[zIdx] {
				continue
			}

			var c color.NRGBA
			if hasUV {
				u := (w0*uw0 + w1*uw1 + w2*uw2) / iw
				vv := (w0*vw0 + w1*vw1 + w2*vw2) / iw
				c.R, c.G, c.B, c.A = SampleTexture(m.Texture, u, vv)
			} else {
				c = m.Color
			}

			// Skip transparent texels
			if c.A < 8 {
				continue
			}
			fb.ZBuf[zIdx] = iw
			m.write(fb, zIdx*4, c)
		}
	}
}

func (m *Material) write(fb *FrameBuffer, px int, c color.NRGBA) {
	if m.Unlit {
		fb.Color[px] = c.R
		fb.Color[px+1] = c.G
		fb.Color[px+2] = c.B
		fb.Color[px+3] = c.A
		return
	}
	// sRGB decode → linear (LUT), shade, encode
	fb.Color[px] = encodeSRGB(srgbToLinear[c.R] * m.Shade)
	fb.Color[px+1] = encodeSRGB(srgbToLinear[c.G] * m.Shade)
	fb.Color[px+2] = encodeSRGB(srgbToLinear[c.B] * m.Shade)
	fb.Color[px+3] = c.A
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
