package viewport

import (
	"github.com/go-gl/mathgl/mgl32"

	"moto-viewer/internal/mathutil"
)

// Camera is a perspective camera. FovY is the vertical field of view in degrees.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32
	Aspect   float32
	Near     float32
	Far      float32
}

// NewCamera returns a camera at distance on +Z looking at the origin.
func NewCamera(fovY, aspect, near, far, distance float32) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{
		Position: mgl32.Vec3{0, 0, distance},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     fovY,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// SetAspect sets the width/height ratio. Non-positive values are ignored.
func (c *Camera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.Aspect = aspect
	}
}

// Ray returns the world ray through normalized device coordinates (ndcX, ndcY). The point
// is unprojected at mid depth with the eye at the origin, which keeps the direction
// precise at any camera distance.
func (c *Camera) Ray(ndcX, ndcY float32) mathutil.Ray {
	fwd := c.Target.Sub(c.Position)
	view := mgl32.LookAtV(mgl32.Vec3{}, fwd, c.Up)
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
	// A 2×2 viewport at (0, 0) maps window coordinates onto NDC plus one.
	p, err := mgl32.UnProject(mgl32.Vec3{ndcX + 1, ndcY + 1, 0.5}, view, proj, 0, 0, 2, 2)
	if err != nil || p.Len() == 0 {
		p = fwd
	}
	return mathutil.Ray{Origin: c.Position, Dir: p.Normalize()}
}
