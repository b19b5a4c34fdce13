package raster

import (
	"image/color"
	"math"
)

// ClipVertex is a vertex in homogeneous clip space (OpenGL convention:
// visible depth satisfies -w <= z <= w).
type ClipVertex struct {
	Pos  [4]float64
	U, V float64
}

// nearDist is positive on the visible side of the near plane.
func nearDist(c ClipVertex) float64 {
	return c.Pos[2] + c.Pos[3]
}

func lerpClip(a, b ClipVertex, t float64) ClipVertex {
	var p [4]float64
	for i := range p {
		p[i] = a.Pos[i] + (b.Pos[i]-a.Pos[i])*t
	}
	return ClipVertex{Pos: p, U: a.U + (b.U-a.U)*t, V: a.V + (b.V-a.V)*t}
}

// toScreen applies the perspective divide and viewport mapping. NDC +Y maps
// to the top row.
func (fb *FrameBuffer) toScreen(c ClipVertex) Vertex {
	invW := 1 / c.Pos[3]
	return Vertex{
		X:    (c.Pos[0]*invW + 1) * 0.5 * float64(fb.Width),
		Y:    (1 - c.Pos[1]*invW) * 0.5 * float64(fb.Height),
		InvW: invW,
		U:    c.U,
		V:    c.V,
	}
}

// DrawClipTriangle clips a clip-space triangle against the near plane and
// rasterizes what remains.
func DrawClipTriangle(fb *FrameBuffer, tri [3]ClipVertex, m *Material) {
	var poly [4]ClipVertex
	n := 0
	for i := 0; i < 3; i++ {
		a, b := tri[i], tri[(i+1)%3]
		da, db := nearDist(a), nearDist(b)
		if da >= 0 {
			poly[n] = a
			n++
		}
		if (da >= 0) != (db >= 0) {
			poly[n] = lerpClip(a, b, da/(da-db))
			n++
		}
	}
	if n < 3 {
		return
	}
	s0 := fb.toScreen(poly[0])
	for i := 1; i+1 < n; i++ {
		DrawTriangle(fb, [3]Vertex{s0, fb.toScreen(poly[i]), fb.toScreen(poly[i+1])}, m)
	}
}

// DrawClipLine clips a clip-space segment against the near plane and draws it.
func DrawClipLine(fb *FrameBuffer, a, b ClipVertex, c color.NRGBA) {
	da, db := nearDist(a), nearDist(b)
	switch {
	case da < 0 && db < 0:
		return
	case da < 0:
		a = lerpClip(a, b, da/(da-db))
	case db < 0:
		b = lerpClip(a, b, da/(da-db))
	}
	DrawLine(fb, fb.toScreen(a), fb.toScreen(b), c)
}

// DrawLine draws a one-pixel depth-tested segment between screen vertices.
// Lines win depth ties so wireframes on surfaces stay visible.
func DrawLine(fb *FrameBuffer, a, b Vertex, c color.NRGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps < 1 {
		steps = 1
	}
	// Guard against degenerate projections producing huge spans.
	if steps > 4*(fb.Width+fb.Height) {
		steps = 4 * (fb.Width + fb.Height)
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Floor(a.X + dx*t))
		y := int(math.Floor(a.Y + dy*t))
		if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
			continue
		}
		iw := a.InvW + (b.InvW-a.InvW)*t
		idx := y*fb.Width + x
		if iw < fb.ZBuf[idx]*(1-1e-6) {
			continue
		}
		fb.ZBuf[idx] = iw
		px := idx * 4
		fb.Color[px] = c.R
		fb.Color[px+1] = c.G
		fb.Color[px+2] = c.B
		fb.Color[px+3] = c.A
	}
}
