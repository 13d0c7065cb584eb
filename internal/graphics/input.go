package graphics

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"moto-viewer/internal/session"
)

// Pointer receives the window's pointer and resize events. *session.Session implements it.
type Pointer interface {
	PointerDown(x, y float32, b session.Button)
	PointerMove(x, y float32, primaryHeld bool)
	PointerUp(x, y float32, b session.Button)
	PointerCancel()
	Wheel(notches float32)
	Resize(w, h int)
}

var mouseButtons = [...]struct {
	code   rl.MouseButton
	button session.Button
}{
	{rl.MouseButtonLeft, session.Primary},
	{rl.MouseButtonRight, session.Secondary},
	{rl.MouseButtonMiddle, session.Middle},
}

// Input turns raylib's polled mouse state into pointer events.
type Input struct {
	last rl.Vector2
	held [len(mouseButtons)]bool
}

// Poll forwards this frame's input to p. Where blocked reports true an overlay owns the
// mouse: new presses and wheel motion are kept from p, but releases of presses p already
// saw still reach it.
func (in *Input) Poll(p Pointer, blocked func(x, y float32) bool) {
	if rl.IsWindowResized() {
		p.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}
	if !rl.IsWindowFocused() {
		in.cancel(p)
		return
	}

	pos := rl.GetMousePosition()
	captured := blocked != nil && blocked(pos.X, pos.Y)
	if pos != in.last && in.anyHeld() {
		p.PointerMove(pos.X, pos.Y, in.held[0] && rl.IsMouseButtonDown(rl.MouseButtonLeft))
	}
	in.last = pos

	for i, mb := range mouseButtons {
		switch {
		case in.held[i] && rl.IsMouseButtonReleased(mb.code):
			in.held[i] = false
			p.PointerUp(pos.X, pos.Y, mb.button)
		case !in.held[i] && !captured && rl.IsMouseButtonPressed(mb.code):
			in.held[i] = true
			p.PointerDown(pos.X, pos.Y, mb.button)
		}
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !captured {
		p.Wheel(wheel)
	}
}

func (in *Input) anyHeld() bool {
	for _, h := range in.held {
		if h {
			return true
		}
	}
	return false
}

func (in *Input) cancel(p Pointer) {
	if !in.anyHeld() {
		return
	}
	in.held = [len(mouseButtons)]bool{}
	p.PointerCancel()
}
