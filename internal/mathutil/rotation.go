package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}

// EulerXYZ returns Rx(x) · Ry(y) · Rz(z), the intrinsic XYZ order used for
// node rotations.
func EulerXYZ(e Vec3) Mat3 {
	return Mat3Mul(Mat3Mul(RotX(e[0]), RotY(e[1])), RotZ(e[2]))
}

// EulerXYZFromMat3 extracts XYZ Euler angles from a pure rotation matrix.
// Near gimbal lock Z is forced to zero.
func EulerXYZFromMat3(m Mat3) Vec3 {
	m13 := Clamp(m[2], -1, 1)
	y := math.Asin(m13)
	if math.Abs(m13) < 0.9999999 {
		return Vec3{math.Atan2(-m[5], m[8]), y, math.Atan2(-m[1], m[0])}
	}
	return Vec3{math.Atan2(m[7], m[4]), y, 0}
}

// LookAt returns the rotation that points an object's local -Z axis from eye
// toward target with the given up vector.
func LookAt(eye, target, up Vec3) Mat3 {
	z := eye.Sub(target)
	if z.Len() < 1e-12 {
		z = Vec3{0, 0, 1}
	}
	z = z.Normalize()
	x := up.Cross(z)
	if x.Len() < 1e-12 {
		// up is parallel to the view axis
		if math.Abs(up[2]) == 1 {
			z[0] += 1e-4
		} else {
			z[2] += 1e-4
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return Mat3FromColumns(x, y, z)
}
