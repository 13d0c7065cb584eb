package picking

import (
	"image/color"

	"moto-viewer/internal/model"
)

// DefaultHighlight is the emissive tint put on selected parts.
var DefaultHighlight = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// Selection is the ordered set of selected parts. Selected parts carry the highlight as
// their emissive color; removing a part clears it.
type Selection struct {
	parts     []*model.Node
	highlight color.RGBA
}

// NewSelection returns an empty selection that tints parts with highlight.
func NewSelection(highlight color.RGBA) *Selection {
	return &Selection{highlight: highlight}
}

// Toggle adds n when absent and removes it when present. It reports whether n is
// selected afterwards.
func (s *Selection) Toggle(n *model.Node) bool {
	if s.Remove(n) {
		return false
	}
	return s.Add(n)
}

// Add selects n. Nodes that are not parts are refused.
func (s *Selection) Add(n *model.Node) bool {
	if n == nil || !n.IsPart() {
		return false
	}
	if s.Contains(n) {
		return true
	}
	s.parts = append(s.parts, n)
	n.Mesh.Material.Emissive = s.highlight
	return true
}

// Remove deselects n and clears its highlight. It reports whether n was selected.
func (s *Selection) Remove(n *model.Node) bool {
	for i, p := range s.parts {
		if p == n {
			s.parts = append(s.parts[:i], s.parts[i+1:]...)
			n.Mesh.Material.Emissive = color.RGBA{}
			return true
		}
	}
	return false
}

// Contains reports whether n is selected.
func (s *Selection) Contains(n *model.Node) bool {
	for _, p := range s.parts {
		if p == n {
			return true
		}
	}
	return false
}

// Parts returns the selected parts in selection order.
func (s *Selection) Parts() []*model.Node {
	out := make([]*model.Node, len(s.parts))
	copy(out, s.parts)
	return out
}

func (s *Selection) Len() int {
	return len(s.parts)
}

func (s *Selection) Empty() bool {
	return len(s.parts) == 0
}

// Clear deselects everything and clears highlights.
func (s *Selection) Clear() {
	s.Unhighlight()
	s.parts = s.parts[:0]
}

// Forget drops every part without touching materials, for parts whose model is gone.
func (s *Selection) Forget() {
	s.parts = s.parts[:0]
}

// Unhighlight clears the emissive tint of every selected part but keeps them selected.
func (s *Selection) Unhighlight() {
	for _, p := range s.parts {
		p.Mesh.Material.Emissive = color.RGBA{}
	}
}

// Highlight re-applies the emissive tint to every selected part.
func (s *Selection) Highlight() {
	for _, p := range s.parts {
		p.Mesh.Material.Emissive = s.highlight
	}
}
