// Package optics derives projector field of view and frustum geometry from
// throw ratio, lens shift and orientation. Every function is pure.
package optics

import (
	"errors"
	"fmt"
	"math"

	"projmap/internal/mathutil"
)

// ErrInvalidThrowRatio is returned for throw ratios that are not finite and
// strictly positive.
var ErrInvalidThrowRatio = errors.New("optics: throw ratio must be finite and > 0")

// Orientation selects the projected image aspect.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Aspect returns width/height: 16/9 for landscape, 9/16 for portrait. The
// value is derived from constants on every call so toggling never drifts.
func (o Orientation) Aspect() float64 {
	if o == Portrait {
		return 9.0 / 16.0
	}
	return 16.0 / 9.0
}

// Toggle returns the other orientation.
func (o Orientation) Toggle() Orientation {
	if o == Portrait {
		return Landscape
	}
	return Portrait
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Landscape || o == Portrait
}

// ThrowRatioToFOV converts a throw ratio (distance / image width) to the
// field of view in degrees: 2·atan(1 / (2·tr)).
func ThrowRatioToFOV(throwRatio float64) (float64, error) {
	if !(throwRatio > 0) || math.IsInf(throwRatio, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidThrowRatio, throwRatio)
	}
	half := math.Atan(1 / (2 * throwRatio))
	return mathutil.Rad2Deg(2 * half), nil
}

// FOVToThrowRatio is the inverse of ThrowRatioToFOV. fov must lie in (0, 180).
func FOVToThrowRatio(fovDeg float64) (float64, error) {
	if !(fovDeg > 0 && fovDeg < 180) {
		return 0, fmt.Errorf("optics: field of view must be in (0, 180), got %v", fovDeg)
	}
	return 1 / (2 * math.Tan(mathutil.Deg2Rad(fovDeg)/2)), nil
}

// Corner order within one plane.
const (
	BottomLeft = iota
	BottomRight
	TopRight
	TopLeft
)

// Corners holds the frustum corners in projector-local space: indices 0..3
// are the near plane and 4..7 the far plane, each ordered BL, BR, TR, TL.
type Corners [8]mathutil.Vec3

// Near returns corner i of the near plane.
func (c Corners) Near(i int) mathutil.Vec3 { return c[i] }

// Far returns corner i of the far plane.
func (c Corners) Far(i int) mathutil.Vec3 { return c[4+i] }

// FrustumCorners computes the eight frustum corners for a projector looking
// down local -Z. Lens shift is a percentage of the half-dimension; the
// offset (shift/100)·2 per unit depth is applied to both planes.
func FrustumCorners(fovDeg, aspect, near, far, shiftV, shiftH float64) Corners {
	halfH := math.Tan(mathutil.Deg2Rad(fovDeg) / 2)
	halfW := halfH * aspect
	sv := shiftV / 100 * 2
	sh := shiftH / 100 * 2

	var c Corners
	for plane, d := range [2]float64{near, far} {
		hh, hw := halfH*d, halfW*d
		oy, ox := sv*d, sh*d
		base := plane * 4
		c[base+BottomLeft] = mathutil.Vec3{-hw + ox, -hh + oy, -d}
		c[base+BottomRight] = mathutil.Vec3{hw + ox, -hh + oy, -d}
		c[base+TopRight] = mathutil.Vec3{hw + ox, hh + oy, -d}
		c[base+TopLeft] = mathutil.Vec3{-hw + ox, hh + oy, -d}
	}
	return c
}

// Segments is a wireframe as 12 line segments (24 vertices): the near loop,
// the far loop, then the four near-to-far edges.
type Segments [24]mathutil.Vec3

// Wireframe expands frustum corners into line-segment vertex pairs.
func Wireframe(c Corners) Segments {
	var s Segments
	n := 0
	emit := func(a, b mathutil.Vec3) {
		s[n], s[n+1] = a, b
		n += 2
	}
	for i := 0; i < 4; i++ {
		emit(c[i], c[(i+1)%4])
	}
	for i := 0; i < 4; i++ {
		emit(c[4+i], c[4+(i+1)%4])
	}
	for i := 0; i < 4; i++ {
		emit(c[i], c[4+i])
	}
	return s
}
