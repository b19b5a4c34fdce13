package mathutil

import "math"

// World axes. Y is up; cameras and projectors look down their local -Z.
var (
	AxisX   = Vec3{1, 0, 0}
	AxisY   = Vec3{0, 1, 0}
	AxisZ   = Vec3{0, 0, 1}
	Forward = Vec3{0, 0, -1}
)

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
