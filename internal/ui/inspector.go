package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"moto-viewer/internal/model"
	"moto-viewer/internal/palette"
)

const (
	inspectorWidth = 260
	inspectorRow   = 22
	inspectorMax   = 12
)

// Inspector is a right-side panel listing the selected parts with their material and color.
type Inspector struct {
	panel *Node
	title *Node
	rows  []*Node
}

func NewInspector() *Inspector {
	in := &Inspector{
		panel: &Node{Class: "inspector", Placed: true},
		title: &Node{Class: "inspector-title", Placed: true},
	}
	for i := 0; i < inspectorMax+1; i++ {
		in.rows = append(in.rows, &Node{Class: "inspector-row", Placed: true})
	}
	return in
}

// Bounds returns the panel rectangle for n selected parts at screen width w.
func (in *Inspector) Bounds(n int, screenW float32) rl.Rectangle {
	rows := min(n, inspectorMax)
	if n > inspectorMax {
		rows++
	}
	return rl.Rectangle{X: screenW - inspectorWidth - 12, Y: 60, Width: inspectorWidth, Height: float32(rows+1)*inspectorRow + 12}
}

// Nodes lays out the panel for parts and returns its nodes in draw order, or nil when
// nothing is selected.
func (in *Inspector) Nodes(parts []*model.Node, screenW float32) []*Node {
	if len(parts) == 0 {
		return nil
	}
	b := in.Bounds(len(parts), screenW)
	in.panel.Bounds = b
	in.title.Text = fmt.Sprintf("Selected: %d", len(parts))
	in.title.Bounds = rl.Rectangle{X: b.X, Y: b.Y + 4, Width: b.Width, Height: inspectorRow}
	out := []*Node{in.panel, in.title}

	for i, p := range parts {
		row := in.rows[i]
		if i == inspectorMax {
			row.Text = fmt.Sprintf("... and %d more", len(parts)-inspectorMax)
		} else {
			m := p.Mesh.Material
			row.Text = fmt.Sprintf("%s  %s  %s", p.Label(), m.Name, palette.Hex(m.Color))
		}
		row.Bounds = rl.Rectangle{X: b.X, Y: b.Y + 4 + float32(i+1)*inspectorRow, Width: b.Width, Height: inspectorRow}
		out = append(out, row)
		if i == inspectorMax {
			break
		}
	}
	return out
}
