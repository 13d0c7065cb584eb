package picking

import (
	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"
)

// RayCaster builds world rays from normalized device coordinates.
type RayCaster interface {
	Ray(ndcX, ndcY float32) mathutil.Ray
}

// Outcome says what a pick did to the selection.
type Outcome int

const (
	// Cleared: nothing was hit and the selection was emptied.
	Cleared Outcome = iota
	// Ignored: the nearest hit has no material to tint.
	Ignored
	// Selected: the nearest hit was added.
	Selected
	// Deselected: the nearest hit was removed.
	Deselected
)

func (o Outcome) String() string {
	switch o {
	case Cleared:
		return "cleared"
	case Ignored:
		return "ignored"
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	}
	return "unknown"
}

// Picker turns clicks into selection changes.
type Picker struct {
	camera    RayCaster
	selection *Selection
}

func NewPicker(camera RayCaster, selection *Selection) *Picker {
	return &Picker{camera: camera, selection: selection}
}

// Pick casts a ray through pixel (x, y) of a w×h viewport into root and toggles the
// nearest part it hits. It returns the outcome and the node involved, if any.
func (p *Picker) Pick(root *model.Node, x, y, w, h float32) (Outcome, *model.Node) {
	nx, ny := NDC(x, y, w, h)
	hits := Intersect(root, p.camera.Ray(nx, ny))
	if len(hits) == 0 {
		p.selection.Clear()
		return Cleared, nil
	}
	n := hits[0].Node
	if !n.IsPart() {
		return Ignored, n
	}
	if p.selection.Toggle(n) {
		return Selected, n
	}
	return Deselected, n
}
