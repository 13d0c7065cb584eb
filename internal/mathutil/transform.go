package mathutil

import "github.com/go-gl/mathgl/mgl32"

// TRS builds translation × rotation × scale.
func TRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// EulerXYZ converts Euler angles in degrees into a rotation that turns about X first,
// then Y, then Z.
func EulerXYZ(deg mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(deg[2]),
		mgl32.DegToRad(deg[1]),
		mgl32.DegToRad(deg[0]),
		mgl32.ZYX,
	)
}

// Transform applies m to the point p (w = 1).
func Transform(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// FaceNormal returns the unit normal of triangle (a, b, c), or zero for a degenerate one.
func FaceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{}
}
