package picking

import (
	"image/color"
	"testing"

	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// straightDown shoots parallel rays along -Z from z=10, spanning [-10, 10] on X and Y.
type straightDown struct{}

func (straightDown) Ray(nx, ny float32) mathutil.Ray {
	return mathutil.Ray{Origin: mgl32.Vec3{nx * 10, ny * 10, 10}, Dir: mgl32.Vec3{0, 0, -1}}
}

func plate(name string, z float32, mat bool) *model.Node {
	m := &model.Mesh{
		Positions: []mgl32.Vec3{{-1, -1, z}, {1, -1, z}, {1, 1, z}, {-1, 1, z}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	if mat {
		m.Material = &model.Material{Name: name, Color: color.RGBA{R: 255, A: 255}}
	}
	return model.NewMeshNode(name, m)
}

// bike has a tank in front of a frame, both centered on the origin, and a seat off to the side.
func bike() (root, tank, frame, seat *model.Node) {
	root = model.NewNode("bike")
	tank = plate("tank", 1, true)
	frame = plate("frame", 0, true)
	seat = plate("seat", 0, true)
	seat.Translation = mgl32.Vec3{5, 0, 0}
	root.AddChild(frame)
	root.AddChild(tank)
	root.AddChild(seat)
	return root, tank, frame, seat
}

func TestNDC(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float32
		nx, ny float32
	}{
		{"top left", 0, 0, -1, 1},
		{"bottom right", 800, 600, 1, -1},
		{"center", 400, 300, 0, 0},
		{"quarter", 200, 450, -0.5, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nx, ny := NDC(tt.x, tt.y, 800, 600)
			assert.InDelta(t, tt.nx, nx, 1e-6)
			assert.InDelta(t, tt.ny, ny, 1e-6)
		})
	}
	nx, ny := NDC(10, 10, 0, 0)
	assert.Zero(t, nx)
	assert.Zero(t, ny)
}

func TestNDC_StaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.Float32Range(1, 8000).Draw(t, "w")
		h := rapid.Float32Range(1, 8000).Draw(t, "h")
		x := rapid.Float32Range(0, 1).Draw(t, "fx") * w
		y := rapid.Float32Range(0, 1).Draw(t, "fy") * h
		nx, ny := NDC(x, y, w, h)
		if nx < -1.0001 || nx > 1.0001 || ny < -1.0001 || ny > 1.0001 {
			t.Fatalf("NDC(%v, %v, %v, %v) = (%v, %v)", x, y, w, h, nx, ny)
		}
	})
}

func TestIntersect_NearestFirst(t *testing.T) {
	root, tank, frame, _ := bike()
	hits := Intersect(root, straightDown{}.Ray(0, 0))
	require.Len(t, hits, 2)
	assert.Same(t, tank, hits[0].Node)
	assert.Same(t, frame, hits[1].Node)
	assert.InDelta(t, 9, hits[0].Distance, 1e-5)
	assert.True(t, hits[0].Point.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5))

	// The seat is only reachable through its node translation.
	hits = Intersect(root, straightDown{}.Ray(0.5, 0))
	require.Len(t, hits, 1)
	assert.Equal(t, "seat", hits[0].Node.Label())

	assert.Empty(t, Intersect(nil, straightDown{}.Ray(0, 0)))
}

func TestSelection_HighlightFollowsMembership(t *testing.T) {
	hl := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	s := NewSelection(hl)
	_, tank, frame, _ := bike()

	assert.True(t, s.Toggle(tank))
	assert.True(t, s.Add(frame))
	assert.True(t, s.Add(frame))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, hl, tank.Mesh.Material.Emissive)

	assert.False(t, s.Toggle(tank))
	assert.Equal(t, color.RGBA{}, tank.Mesh.Material.Emissive)
	assert.Equal(t, []*model.Node{frame}, s.Parts())

	s.Clear()
	assert.True(t, s.Empty())
	assert.Equal(t, color.RGBA{}, frame.Mesh.Material.Emissive)

	assert.False(t, s.Add(model.NewNode("pivot")))
}

func TestPicker_Pick(t *testing.T) {
	root, tank, frame, _ := bike()
	s := NewSelection(DefaultHighlight)
	p := NewPicker(straightDown{}, s)

	out, n := p.Pick(root, 400, 300, 800, 600)
	assert.Equal(t, Selected, out)
	assert.Same(t, tank, n)

	out, _ = p.Pick(root, 400, 300, 800, 600)
	assert.Equal(t, Deselected, out)
	assert.True(t, s.Empty())

	s.Add(frame)
	out, _ = p.Pick(root, 5, 5, 800, 600)
	assert.Equal(t, Cleared, out)
	assert.True(t, s.Empty())
	assert.Equal(t, color.RGBA{}, frame.Mesh.Material.Emissive)

	// Clearing an empty selection is harmless.
	out, _ = p.Pick(root, 5, 5, 800, 600)
	assert.Equal(t, Cleared, out)
}

func TestPicker_IgnoresGeometryWithoutMaterial(t *testing.T) {
	root, _, frame, _ := bike()
	guard := plate("guard", 2, false)
	root.AddChild(guard)
	s := NewSelection(DefaultHighlight)
	s.Add(frame)

	out, n := NewPicker(straightDown{}, s).Pick(root, 400, 300, 800, 600)
	assert.Equal(t, Ignored, out)
	assert.Same(t, guard, n)
	assert.Equal(t, []*model.Node{frame}, s.Parts())
}

func TestPicker_RepeatedClicksToggle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root, tank, _, _ := bike()
		s := NewSelection(DefaultHighlight)
		p := NewPicker(straightDown{}, s)
		clicks := rapid.IntRange(1, 12).Draw(t, "clicks")
		for i := 0; i < clicks; i++ {
			p.Pick(root, 400, 300, 800, 600)
		}
		if want := clicks%2 == 1; s.Contains(tank) != want {
			t.Fatalf("after %d clicks selected=%v", clicks, s.Contains(tank))
		}
		if s.Len() > 1 {
			t.Fatalf("selection holds %d parts", s.Len())
		}
	})
}

func TestGesture_ClickOrDrag(t *testing.T) {
	tests := []struct {
		name  string
		dx    float32
		dy    float32
		click bool
	}{
		{"still", 0, 0, true},
		{"jitter", 2, -3, true},
		{"just under", 4.9, 0, true},
		{"at threshold", 5, 0, false},
		{"diagonal drag", 4, 4, false},
		{"long drag", 120, 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGesture(0)
			g.Press(100, 100)
			assert.Equal(t, tt.click, g.Release(100+tt.dx, 100+tt.dy))
			assert.False(t, g.Active())
		})
	}
}

func TestGesture_MoveDeltas(t *testing.T) {
	g := NewGesture(5)
	dx, dy := g.Move(10, 10)
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	g.Press(10, 10)
	dx, dy = g.Move(13, 8)
	assert.Equal(t, float32(3), dx)
	assert.Equal(t, float32(-2), dy)
	dx, _ = g.Move(20, 8)
	assert.Equal(t, float32(7), dx)

	g.Cancel()
	assert.False(t, g.Release(10, 10))
}

func TestGesture_DragsNeverClick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := NewGesture(DefaultDragThreshold)
		x := rapid.Float32Range(0, 2000).Draw(t, "x")
		y := rapid.Float32Range(0, 2000).Draw(t, "y")
		dist := rapid.Float32Range(DefaultDragThreshold+0.01, 500).Draw(t, "dist")
		g.Press(x, y)
		if g.Release(x+dist, y) {
			t.Fatalf("drag of %v px counted as a click", dist)
		}
	})
}
