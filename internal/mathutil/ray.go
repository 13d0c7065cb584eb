package mathutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// triangleEpsilon rejects rays nearly parallel to a triangle's plane.
const triangleEpsilon = 1e-7

// Ray is a half-line starting at Origin along the unit vector Dir.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectTriangle returns the distance along r to triangle (a, b, c) using the
// Möller–Trumbore test. Both faces count as hits; hits behind the origin do not.
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < triangleEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= triangleEpsilon {
		return 0, false
	}
	return t, true
}

// IntersectBox reports whether r passes through b (slab test). A ray starting inside b
// intersects it.
func (r Ray) IntersectBox(b Box3) bool {
	if b.IsEmpty() {
		return false
	}
	tmin, tmax := float32(0), math32.Inf(1)
	for i := 0; i < 3; i++ {
		if math32.Abs(r.Dir[i]) < triangleEpsilon {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t0 := (b.Min[i] - r.Origin[i]) * inv
		t1 := (b.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math32.Max(tmin, t0)
		tmax = math32.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}
