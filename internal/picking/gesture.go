package picking

import "github.com/chewxy/math32"

// DefaultDragThreshold is how far, in pixels, a press may travel and still count as a click.
const DefaultDragThreshold = 5

// Gesture tells clicks from drags for one pointer button.
type Gesture struct {
	threshold float32
	active    bool
	startX    float32
	startY    float32
	lastX     float32
	lastY     float32
}

// NewGesture returns a tracker with the given threshold; non-positive values use
// DefaultDragThreshold.
func NewGesture(threshold float32) *Gesture {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &Gesture{threshold: threshold}
}

// Press starts a gesture at (x, y).
func (g *Gesture) Press(x, y float32) {
	g.active = true
	g.startX, g.startY = x, y
	g.lastX, g.lastY = x, y
}

// Move returns the pointer delta since the previous Press or Move. It is zero when no
// gesture is active.
func (g *Gesture) Move(x, y float32) (dx, dy float32) {
	if !g.active {
		return 0, 0
	}
	dx, dy = x-g.lastX, y-g.lastY
	g.lastX, g.lastY = x, y
	return dx, dy
}

// Release ends the gesture and reports whether it was a click: the release lies closer
// than the threshold to the press.
func (g *Gesture) Release(x, y float32) bool {
	if !g.active {
		return false
	}
	g.active = false
	return math32.Hypot(x-g.startX, y-g.startY) < g.threshold
}

// Cancel drops an active gesture without reporting a click.
func (g *Gesture) Cancel() {
	g.active = false
}

func (g *Gesture) Active() bool {
	return g.active
}
