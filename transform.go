package cubeportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Euler is a rotation in radians applied in X, then Y, then Z order
// (matrix Rx * Ry * Rz). Angles accumulate without wrapping.
type Euler struct {
	X, Y, Z float64
}

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Quat returns the equivalent unit quaternion.
func (e Euler) Quat() mgl64.Quat {
	qx := mgl64.QuatRotate(e.X, axisX)
	qy := mgl64.QuatRotate(e.Y, axisY)
	qz := mgl64.QuatRotate(e.Z, axisZ)
	return qx.Mul(qy).Mul(qz)
}

// EulerFromQuat decomposes q into XYZ Euler angles. The result is in the
// principal range; Quat() of the result reproduces q up to sign.
func EulerFromQuat(q mgl64.Quat) Euler {
	m := q.Normalize().Mat4()
	m13 := m.At(0, 2)
	e := Euler{Y: math.Asin(clamp(m13, -1, 1))}
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m.At(1, 2), m.At(2, 2))
		e.Z = math.Atan2(-m.At(0, 1), m.At(0, 0))
	} else {
		// Gimbal lock: fold Z into X.
		e.X = math.Atan2(m.At(2, 1), m.At(1, 1))
	}
	return e
}

// QuatEqual reports whether a and b describe the same rotation within eps.
// q and -q are the same rotation.
func QuatEqual(a, b mgl64.Quat, eps float64) bool {
	d := math.Abs(a.Dot(b))
	return math.Abs(1-d) <= eps
}

// composeMatrix builds T * R * S.
func composeMatrix(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// normalMatrix returns the inverse-transpose of the upper 3x3 of m.
func normalMatrix(m mgl64.Mat4) mgl64.Mat3 {
	n := m.Mat3()
	if n.Det() == 0 {
		return mgl64.Ident3()
	}
	return n.Inv().Transpose()
}

// lookAtQuat returns the orientation of an object at eye whose -Z axis points
// at target, keeping +Y as close to up as possible.
func lookAtQuat(eye, target, up mgl64.Vec3) mgl64.Quat {
	z := eye.Sub(target)
	if z.Len() == 0 {
		z = axisZ
	}
	z = z.Normalize()
	x := up.Cross(z)
	if x.Len() < 1e-9 {
		// up is parallel to the view direction; nudge it.
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
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
}
