package palette

import (
	"image/color"
	"testing"

	"moto-viewer/internal/model"
	"moto-viewer/internal/picking"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	red    = color.RGBA{R: 255, A: 255}
	blue   = color.RGBA{B: 255, A: 255}
	green  = color.RGBA{G: 128, A: 255}
	yellow = color.RGBA{R: 255, G: 255, A: 255}
)

// Strip for an 800×600 viewport: swatches at x 332, 380, 428 and y 536, each 40 px wide.
func strip() *Palette {
	p := New([]Swatch{{"green", green}, {"yellow", yellow}, {"black", color.RGBA{A: 255}}}, 40, 8)
	p.Layout(800, 600)
	return p
}

const (
	overGreen  = 340
	overYellow = 390
	stripY     = 550
	betweenX   = 374
)

func part(name string, c color.RGBA) *model.Node {
	return model.NewMeshNode(name, &model.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Material:  &model.Material{Name: name, Color: c},
	})
}

func setup(t *testing.T) (*Controller, *picking.Selection, *model.Node, *model.Node) {
	t.Helper()
	sel := picking.NewSelection(picking.DefaultHighlight)
	a, b := part("a", red), part("b", blue)
	require.True(t, sel.Add(a))
	require.True(t, sel.Add(b))
	return NewController(strip(), sel, nil), sel, a, b
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff0000", red, false},
		{"#F00", red, false},
		{"0x0000ff", blue, false},
		{"Yellow", yellow, false},
		{"green", green, false},
		{"#12", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
		{"chartreuse-ish", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
	assert.Equal(t, "#ffff00", Hex(yellow))
}

func TestPalette_Layout(t *testing.T) {
	p := strip()
	s, ok := p.SwatchAt(overGreen, stripY)
	require.True(t, ok)
	assert.Equal(t, "green", s.Name)
	s, ok = p.SwatchAt(overYellow, stripY)
	require.True(t, ok)
	assert.Equal(t, "yellow", s.Name)

	_, ok = p.SwatchAt(betweenX, stripY)
	assert.False(t, ok)
	assert.True(t, p.Contains(betweenX, stripY))
	assert.False(t, p.Contains(400, 100))

	assert.Equal(t, Rect{X: 332, Y: 536, W: 40, H: 40}, p.Rects()[0])

	sw, ok := p.Lookup("BLACK")
	require.True(t, ok)
	assert.Equal(t, uint8(0), sw.Color.R)
}

func TestTransition(t *testing.T) {
	g := &Swatch{Name: "green", Color: green}
	tests := []struct {
		name    string
		state   State
		event   Event
		hasSel  bool
		next    State
		effects []Effect
	}{
		{"down off palette", Idle, Event{Kind: Down}, true, Idle, nil},
		{"down empty selection", Idle, Event{Kind: Down, OverPalette: true, Swatch: g}, false, Idle, []Effect{{Kind: NoticeNoSelection}}},
		{"down between swatches", Idle, Event{Kind: Down, OverPalette: true}, true, Previewing, []Effect{{Kind: Capture}}},
		{"down on swatch", Idle, Event{Kind: Down, OverPalette: true, Swatch: g}, true, Previewing, []Effect{{Kind: Capture}, {Kind: Preview, Color: green}}},
		{"move held", Previewing, Event{Kind: Move, Swatch: g, Held: true}, true, Previewing, []Effect{{Kind: Preview, Color: green}}},
		{"move released", Previewing, Event{Kind: Move, Swatch: g}, true, Previewing, nil},
		{"move off swatch", Previewing, Event{Kind: Move, Held: true}, true, Previewing, nil},
		{"up on swatch", Previewing, Event{Kind: Up, Swatch: g}, true, Idle, []Effect{{Kind: Commit, Color: green}}},
		{"up elsewhere", Previewing, Event{Kind: Up}, true, Idle, []Effect{{Kind: Rollback}}},
		{"abort", Previewing, Event{Kind: Abort}, true, Idle, []Effect{{Kind: Rollback}}},
		{"idle move", Idle, Event{Kind: Move, Swatch: g, Held: true}, true, Idle, nil},
		{"idle up", Idle, Event{Kind: Up, Swatch: g}, true, Idle, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(tt.state, tt.event, tt.hasSel)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.effects, effects)
		})
	}
}

func TestController_PreviewThenRollback(t *testing.T) {
	c, sel, a, b := setup(t)

	require.NoError(t, c.Down(betweenX, stripY))
	c.Move(overGreen, stripY, true)
	assert.Equal(t, green, a.Mesh.Material.Color)
	assert.Equal(t, green, b.Mesh.Material.Color)
	assert.Equal(t, color.RGBA{}, a.Mesh.Material.Emissive)

	c.Up(400, 100)
	assert.Equal(t, red, a.Mesh.Material.Color)
	assert.Equal(t, blue, b.Mesh.Material.Color)
	assert.Equal(t, []*model.Node{a, b}, sel.Parts())
	assert.Equal(t, picking.DefaultHighlight, a.Mesh.Material.Emissive)
	assert.Equal(t, Idle, c.State())
	_, held := c.Snapshotted(a)
	assert.False(t, held)
}

func TestController_PreviewThenCommit(t *testing.T) {
	c, sel, a, b := setup(t)

	require.NoError(t, c.Down(overGreen, stripY))
	assert.Equal(t, green, a.Mesh.Material.Color)
	orig, held := c.Snapshotted(a)
	require.True(t, held)
	assert.Equal(t, red, orig)

	c.Move(overYellow, stripY, true)
	c.Up(overYellow, stripY)
	assert.Equal(t, yellow, a.Mesh.Material.Color)
	assert.Equal(t, yellow, b.Mesh.Material.Color)
	assert.Equal(t, color.RGBA{}, b.Mesh.Material.Emissive)
	assert.True(t, sel.Empty())
	_, held = c.Snapshotted(a)
	assert.False(t, held)
}

func TestController_EmptySelection(t *testing.T) {
	sel := picking.NewSelection(picking.DefaultHighlight)
	c := NewController(strip(), sel, nil)
	bystander := part("bystander", red)

	assert.ErrorIs(t, c.Down(overGreen, stripY), ErrNoSelection)
	c.Up(overGreen, stripY)
	assert.ErrorIs(t, c.Apply(green), ErrNoSelection)
	assert.Equal(t, red, bystander.Mesh.Material.Color)
	assert.Equal(t, Idle, c.State())

	// A press away from the palette is not a color gesture at all.
	assert.NoError(t, c.Down(400, 100))
}

func TestController_AbortAndReset(t *testing.T) {
	c, _, a, _ := setup(t)
	require.NoError(t, c.Down(overGreen, stripY))
	c.Abort()
	assert.Equal(t, red, a.Mesh.Material.Color)

	require.NoError(t, c.Down(overGreen, stripY))
	c.Reset()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, green, a.Mesh.Material.Color)
}

func TestController_Apply(t *testing.T) {
	c, sel, a, _ := setup(t)
	require.NoError(t, c.Apply(yellow))
	assert.Equal(t, yellow, a.Mesh.Material.Color)
	assert.True(t, sel.Empty())
}

func TestTintMaterial(t *testing.T) {
	root := model.NewNode("bike")
	fairing := part("fairing", red)
	root.AddChild(fairing)
	root.AddChild(part("seat", red))
	assert.Equal(t, 1, TintMaterial(root, "fairing", blue))
	assert.Equal(t, blue, fairing.Mesh.Material.Color)
	assert.Zero(t, TintMaterial(nil, "fairing", blue))
}

// Any gesture that does not commit leaves every original color in place and the
// selection intact; snapshots never outlive the gesture.
func TestController_GesturesEndCleanly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sel := picking.NewSelection(picking.DefaultHighlight)
		parts := []*model.Node{part("a", red), part("b", blue), part("c", yellow)}
		n := rapid.IntRange(1, len(parts)).Draw(t, "selected")
		for _, p := range parts[:n] {
			sel.Add(p)
		}
		c := NewController(strip(), sel, nil)
		onStrip := rapid.SampledFrom([]float32{overGreen, overYellow, betweenX})
		xs := rapid.SampledFrom([]float32{overGreen, overYellow, betweenX, 10})

		if err := c.Down(onStrip.Draw(t, "down"), stripY); err != nil {
			t.Fatalf("down: %v", err)
		}
		moves := rapid.IntRange(0, 6).Draw(t, "moves")
		for i := 0; i < moves; i++ {
			c.Move(xs.Draw(t, "move"), stripY, rapid.Bool().Draw(t, "held"))
			for p := range c.snapshot {
				if !sel.Contains(p) {
					t.Fatalf("snapshot holds unselected part %s", p.Label())
				}
			}
		}
		upX := xs.Draw(t, "up")
		_, commits := c.palette.SwatchAt(upX, stripY)
		c.Up(upX, stripY)

		if c.State() != Idle || len(c.snapshot) != 0 {
			t.Fatalf("gesture left state=%v snapshot=%d", c.State(), len(c.snapshot))
		}
		if commits {
			if !sel.Empty() {
				t.Fatalf("commit kept %d parts selected", sel.Len())
			}
			return
		}
		if sel.Len() != n {
			t.Fatalf("rollback changed selection size to %d", sel.Len())
		}
		for i, want := range []color.RGBA{red, blue, yellow}[:n] {
			if got := parts[i].Mesh.Material.Color; got != want {
				t.Fatalf("part %d color %v after rollback, want %v", i, got, want)
			}
		}
	})
}
