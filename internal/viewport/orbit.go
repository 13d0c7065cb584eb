package viewport

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultDampingFactor is the share of the pending motion applied per frame.
const DefaultDampingFactor = 0.05

// polarEpsilon keeps the camera off the poles, where the up vector degenerates.
const polarEpsilon = 1e-4

// OrbitControls orbits a camera around its target. Input accumulates as pending
// rotation and zoom; Update applies it, all at once or eased when damping is on.
type OrbitControls struct {
	camera *Camera

	EnableDamping bool
	DampingFactor float32
	// RotateSpeed scales pointer drags: a drag across the full viewport height turns
	// 2π×RotateSpeed radians.
	RotateSpeed float32
	// ZoomSpeed is the exponent base step per wheel notch.
	ZoomSpeed   float32
	MinDistance float32
	MaxDistance float32

	viewportHeight float32
	deltaTheta     float32
	deltaPhi       float32
	scale          float32
}

// NewOrbitControls attaches controls to camera with damping on.
func NewOrbitControls(camera *Camera) *OrbitControls {
	return &OrbitControls{
		camera:         camera,
		EnableDamping:  true,
		DampingFactor:  DefaultDampingFactor,
		RotateSpeed:    1,
		ZoomSpeed:      1,
		MinDistance:    0.5,
		MaxDistance:    500,
		viewportHeight: 1,
		scale:          1,
	}
}

// SetViewportHeight sets the height used to turn pixel drags into angles.
func (o *OrbitControls) SetViewportHeight(h float32) {
	if h > 0 {
		o.viewportHeight = h
	}
}

// Rotate queues an orbit for a pointer drag of (dx, dy) pixels.
func (o *OrbitControls) Rotate(dx, dy float32) {
	o.deltaTheta -= 2 * math32.Pi * dx / o.viewportHeight * o.RotateSpeed
	o.deltaPhi -= 2 * math32.Pi * dy / o.viewportHeight * o.RotateSpeed
}

// Zoom queues a dolly; positive notches move closer.
func (o *OrbitControls) Zoom(notches float32) {
	o.scale *= math32.Pow(0.95, notches*o.ZoomSpeed)
}

// Update moves the camera by the pending motion. It reports whether the camera moved.
func (o *OrbitControls) Update() bool {
	c := o.camera
	offset := c.Position.Sub(c.Target)
	radius := offset.Len()
	if radius == 0 {
		radius = o.MinDistance
		offset = mgl32.Vec3{0, 0, radius}
	}
	theta := math32.Atan2(offset[0], offset[2])
	phi := math32.Acos(clamp(offset[1]/radius, -1, 1))

	if o.EnableDamping {
		theta += o.deltaTheta * o.DampingFactor
		phi += o.deltaPhi * o.DampingFactor
	} else {
		theta += o.deltaTheta
		phi += o.deltaPhi
	}
	phi = clamp(phi, polarEpsilon, math32.Pi-polarEpsilon)
	radius = clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	sinPhi := math32.Sin(phi)
	next := c.Target.Add(mgl32.Vec3{
		radius * sinPhi * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * sinPhi * math32.Cos(theta),
	})

	if o.EnableDamping {
		o.deltaTheta *= 1 - o.DampingFactor
		o.deltaPhi *= 1 - o.DampingFactor
	} else {
		o.deltaTheta, o.deltaPhi = 0, 0
	}
	o.scale = 1

	moved := !next.ApproxEqualThreshold(c.Position, 1e-5)
	c.Position = next
	return moved
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
