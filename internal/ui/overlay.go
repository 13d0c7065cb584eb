package ui

import (
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"moto-viewer/internal/palette"
	"moto-viewer/internal/session"
)

const (
	buttonW      = 110
	buttonH      = 30
	buttonGap    = 8
	barMargin    = 12
	noticeLength = 3 * time.Second
)

// DefaultCSS styles the overlay when no stylesheet is configured.
const DefaultCSS = `
.notice { background: rgba(0, 0, 0, 0.7); color: #ffd166; padding: 10; left: 50%; top: 80%; font-size: 20 }
.hint { color: rgba(255, 255, 255, 0.6); left: 12; top: 52; font-size: 16; padding: 0 }
.inspector { background: rgba(20, 22, 26, 0.85); border: 1px solid #3a3f47 }
.inspector-title { color: #ffffff; padding: 8; font-size: 18 }
.inspector-row { color: #c8ccd2; padding: 8; font-size: 16 }
.swatch { border: 1px solid #202020 }
.swatch-hover { border: 1px solid #ffffff }
`

// Model is one button of the model selector.
type Model struct {
	ID    string
	Label string
}

// Overlay draws the viewer's 2D layer: the model selector, the swatch strip, the
// selection inspector and transient notices.
type Overlay struct {
	engine    *Engine
	models    []Model
	inspector *Inspector
	notice    *Node
	hint      *Node
	swatch    *Node
	hover     *Node

	noticeUntil time.Time
	now         func() time.Time
}

func NewOverlay(e *Engine, models []Model) *Overlay {
	return &Overlay{
		engine:    e,
		models:    models,
		inspector: NewInspector(),
		notice:    NewNode("notice", "", ""),
		hint:      NewNode("hint", "", "click a part to select it, drag to orbit, pick a color below"),
		swatch:    &Node{Class: "swatch", Placed: true},
		hover:     &Node{Class: "swatch-hover", Placed: true},
		now:       time.Now,
	}
}

// InitStyle applies the overlay theme to raygui widgets. Call after the window exists.
func (o *Overlay) InitStyle() {
	if f := o.engine.Font(); f.Texture.ID != 0 {
		gui.SetFont(f)
	}
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(45, 45, 50, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.NewColor(60, 60, 70, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(rl.NewColor(70, 80, 90, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(200, 200, 200, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.White))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(rl.Yellow))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(80, 80, 90, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 16)
}

// Notify shows msg for a few seconds. It is the session's notice sink.
func (o *Overlay) Notify(msg string) {
	o.notice.Text = msg
	o.noticeUntil = o.now().Add(noticeLength)
}

func (o *Overlay) buttonRect(i int) rl.Rectangle {
	return rl.Rectangle{X: float32(barMargin + i*(buttonW+buttonGap)), Y: barMargin, Width: buttonW, Height: buttonH}
}

// Captures reports whether (x, y) is over a widget that should keep the press from the
// scene. The swatch strip is not one: the session handles it.
func (o *Overlay) Captures(s *session.Session, x, y float32) bool {
	p := rl.NewVector2(x, y)
	for i := range o.models {
		if rl.CheckCollisionPointRec(p, o.buttonRect(i)) {
			return true
		}
	}
	if n := s.Selection().Len(); n > 0 {
		return rl.CheckCollisionPointRec(p, o.inspector.Bounds(n, float32(rl.GetScreenWidth())))
	}
	return false
}

// Draw draws the overlay for s and returns the model whose button was clicked, if any.
func (o *Overlay) Draw(s *session.Session, enabled bool) (string, bool) {
	o.drawSwatches(s)

	var picked string
	active := s.Manager().Identifier()
	if !enabled {
		gui.Disable()
	}
	for i, m := range o.models {
		label := m.Label
		if m.ID == active {
			label = "> " + label
		}
		if gui.Button(o.buttonRect(i), label) && m.ID != active {
			picked = m.ID
		}
	}
	gui.Enable()

	if s.Current() == nil && s.Manager().Pending() {
		o.hint.Text = "loading " + active + "..."
	} else {
		o.hint.Text = "click a part to select it, drag to orbit, pick a color below"
	}
	o.engine.Draw(o.hint)
	o.engine.Draw(o.inspector.Nodes(s.Selection().Parts(), float32(rl.GetScreenWidth()))...)
	if o.notice.Text != "" && o.now().Before(o.noticeUntil) {
		o.engine.Draw(o.notice)
	}
	return picked, picked != ""
}

func (o *Overlay) drawSwatches(s *session.Session) {
	pal := s.Palette()
	mouse := rl.GetMousePosition()
	hover, hovering := pal.SwatchAt(mouse.X, mouse.Y)
	for i, r := range pal.Rects() {
		sw := pal.Swatches()[i]
		rect := rl.Rectangle{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
		rl.DrawRectangleRec(rect, rgba(sw.Color))

		frame := o.swatch
		if hovering && hover.Name == sw.Name && s.ColorState() == palette.Previewing {
			frame = o.hover
		}
		if st := o.engine.Style(frame); st.HasBorder {
			rl.DrawRectangleLinesEx(rect, 2, rgba(st.Border))
		}
	}
}
