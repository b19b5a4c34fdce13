package scenegraph

import (
	"math"

	"projmap/internal/mathutil"
)

// Camera is a perspective viewpoint. ShiftH/ShiftV offset the image as a
// percentage of its half-dimension, matching projector lens shift.
type Camera struct {
	World       mathutil.Mat4
	FOV         float64 // vertical, degrees
	Aspect      float64
	Near        float64
	Far         float64
	ShiftH      float64
	ShiftV      float64
	HideHelpers bool
}

// window returns the near-plane view window.
func (c Camera) window() (l, r, b, t float64) {
	hh := math.Tan(mathutil.Deg2Rad(c.FOV)/2) * c.Near
	hw := hh * c.Aspect
	cx := c.ShiftH / 100 * 2 * c.Near
	cy := c.ShiftV / 100 * 2 * c.Near
	return -hw + cx, hw + cx, -hh + cy, hh + cy
}

// Projection returns the off-axis perspective matrix.
func (c Camera) Projection() mathutil.Mat4 {
	l, r, b, t := c.window()
	return mathutil.Frustum(l, r, b, t, c.Near, c.Far)
}

// View returns the world-to-camera matrix.
func (c Camera) View() mathutil.Mat4 {
	return c.World.InverseAffine()
}

// ViewProj returns Projection · View.
func (c Camera) ViewProj() mathutil.Mat4 {
	return mathutil.Mat4Mul(c.Projection(), c.View())
}

// Position returns the camera origin in world space.
func (c Camera) Position() mathutil.Vec3 {
	return c.World.Translation()
}

// RayFromNDC returns the world ray through normalized device coordinates
// (x right, y up, both in [-1,1]).
func (c Camera) RayFromNDC(x, y float64) Ray {
	l, r, b, t := c.window()
	local := mathutil.Vec3{
		l + (x+1)/2*(r-l),
		b + (y+1)/2*(t-b),
		-c.Near,
	}
	return Ray{
		Origin: c.Position(),
		Dir:    c.World.MulDir(local).Normalize(),
	}
}

// RayFromPixel returns the ray through pixel (px, py) of a w×h viewport with
// a top-left origin.
func (c Camera) RayFromPixel(px, py float64, w, h int) Ray {
	return c.RayFromNDC(px/float64(w)*2-1, 1-py/float64(h)*2)
}
