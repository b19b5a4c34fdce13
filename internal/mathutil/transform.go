package mathutil

// Transform is a node pose: translation, XYZ Euler rotation in radians and
// per-axis scale.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// NewTransform returns a transform at pos with no rotation and unit scale.
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Scale: Vec3{1, 1, 1}}
}

// Basis returns the rotation matrix of the transform.
func (t Transform) Basis() Mat3 {
	return QuatToMat3(EulerToQuat(t.Rotation[0], t.Rotation[1], t.Rotation[2]))
}

// Matrix returns T · R · S.
func (t Transform) Matrix() Mat4 {
	rs := Mat3Mul(t.Basis(), Mat3Diag(t.Scale[0], t.Scale[1], t.Scale[2]))
	return FromMat3Translation(rs, t.Position)
}

// Forward returns the world-space direction of the local -Z axis.
func (t Transform) Forward() Vec3 {
	return t.Basis().MulVec3(Forward)
}

// LookAt rotates the transform so its forward axis points at target.
func (t *Transform) LookAt(target Vec3) {
	t.Rotation = EulerXYZFromMat3(LookAt(t.Position, target, AxisY))
}
