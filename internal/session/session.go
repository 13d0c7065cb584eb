package session

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"moto-viewer/internal/model"
	"moto-viewer/internal/palette"
	"moto-viewer/internal/picking"
	"moto-viewer/internal/scene"
	"moto-viewer/internal/viewport"

	"go.uber.org/zap"
)

// Button is a pointer button.
type Button int

const (
	Primary Button = iota
	Secondary
	Middle
)

// Options configures a Session.
type Options struct {
	Width, Height int

	Swatches      []palette.Swatch
	SwatchSize    float32
	SwatchGap     float32
	DragThreshold float32
	Highlight     color.RGBA

	FovY          float32
	Near, Far     float32
	Distance      float32
	DampingFactor float32

	// OnNotice receives user-facing messages such as "no part selected".
	OnNotice func(msg string)
}

// DefaultOptions is a 75° camera at z=5, damping 0.05 and 5 px clicks.
func DefaultOptions() Options {
	return Options{
		Width:         1280,
		Height:        720,
		SwatchSize:    palette.DefaultSwatchSize,
		SwatchGap:     palette.DefaultGap,
		DragThreshold: picking.DefaultDragThreshold,
		Highlight:     picking.DefaultHighlight,
		FovY:          75,
		Near:          0.1,
		Far:           1000,
		Distance:      5,
		DampingFactor: viewport.DefaultDampingFactor,
	}
}

// Session is one viewer: the scene graph, the displayed model, the selection, the color
// gesture and the viewport. All methods must be called from the goroutine that renders.
type Session struct {
	log      *zap.Logger
	onNotice func(string)

	graph     *model.Graph
	manager   *scene.Manager
	selection *picking.Selection
	picker    *picking.Picker
	gesture   *picking.Gesture
	palette   *palette.Palette
	colors    *palette.Controller
	camera    *viewport.Camera
	controls  *viewport.OrbitControls
	view      *viewport.Controller

	width, height int
	pressed       Button
	onPalette     bool
	disposed      bool
}

// New builds a session that loads models through l and draws through r.
func New(opts Options, l scene.Loader, r viewport.Renderer, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		log:      log,
		onNotice: opts.OnNotice,
		graph:    model.NewGraph(),
	}
	s.manager = scene.NewManager(s.graph, l, log.Named("scene"))
	s.selection = picking.NewSelection(opts.Highlight)
	s.gesture = picking.NewGesture(opts.DragThreshold)
	s.palette = palette.New(opts.Swatches, opts.SwatchSize, opts.SwatchGap)
	s.colors = palette.NewController(s.palette, s.selection, log.Named("palette"))

	s.camera = viewport.NewCamera(opts.FovY, 1, opts.Near, opts.Far, opts.Distance)
	s.controls = viewport.NewOrbitControls(s.camera)
	if opts.DampingFactor > 0 {
		s.controls.DampingFactor = opts.DampingFactor
	}
	s.picker = picking.NewPicker(s.camera, s.selection)
	s.view = viewport.NewController(s.graph, s.camera, s.controls, r)

	s.manager.OnDetach(func(*model.Node) {
		s.colors.Reset()
		s.selection.Forget()
		s.gesture.Cancel()
		s.onPalette = false
	})
	s.manager.OnError(func(id string, err error) {
		s.notice(fmt.Sprintf("could not load %s: %v", id, err))
	})

	s.Resize(opts.Width, opts.Height)
	return s
}

func (s *Session) notice(msg string) {
	s.log.Warn("notice", zap.String("msg", msg))
	if s.onNotice != nil {
		s.onNotice(msg)
	}
}

// SelectModel starts loading identifier. Unsupported formats are rejected with the
// current model left in place.
func (s *Session) SelectModel(identifier string) error {
	if _, err := s.manager.LoadModel(identifier); err != nil {
		s.notice(fmt.Sprintf("cannot load %s: %v", identifier, err))
		return err
	}
	return nil
}

// Await blocks until the latest model request completes.
func (s *Session) Await(ctx context.Context) error {
	return s.manager.Await(ctx)
}

// PointerDown handles a button press at pixel (x, y).
func (s *Session) PointerDown(x, y float32, b Button) {
	if b == Primary && s.palette.Contains(x, y) {
		s.onPalette = true
		if err := s.colors.Down(x, y); err != nil {
			s.onPalette = false
			if errors.Is(err, palette.ErrNoSelection) {
				s.notice("no part selected")
			}
		}
		return
	}
	if b == Middle {
		return
	}
	s.pressed = b
	s.gesture.Press(x, y)
}

// PointerMove handles motion; primaryHeld is the primary button state.
func (s *Session) PointerMove(x, y float32, primaryHeld bool) {
	if s.onPalette {
		s.colors.Move(x, y, primaryHeld)
		return
	}
	if dx, dy := s.gesture.Move(x, y); dx != 0 || dy != 0 {
		s.controls.Rotate(dx, dy)
	}
}

// PointerUp handles a button release at (x, y). A primary release close to its press
// is a click and picks; anything longer was an orbit.
func (s *Session) PointerUp(x, y float32, b Button) {
	if s.onPalette {
		if b == Primary {
			s.colors.Up(x, y)
			s.onPalette = false
		}
		return
	}
	if !s.gesture.Active() || b != s.pressed {
		return
	}
	if s.gesture.Release(x, y) && b == Primary {
		out, n := s.picker.Pick(s.manager.Current(), x, y, float32(s.width), float32(s.height))
		fields := []zap.Field{zap.Stringer("outcome", out), zap.Int("selected", s.selection.Len())}
		if n != nil {
			fields = append(fields, zap.String("part", n.Label()))
		}
		s.log.Debug("pick", fields...)
	}
}

// PointerCancel aborts whatever gesture is in progress, rolling back a color preview.
func (s *Session) PointerCancel() {
	if s.onPalette {
		s.colors.Abort()
		s.onPalette = false
	}
	s.gesture.Cancel()
}

// Wheel zooms; positive notches move closer.
func (s *Session) Wheel(notches float32) {
	s.controls.Zoom(notches)
}

// Resize matches camera, renderer and palette layout to a w×h viewport.
func (s *Session) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s.width, s.height = w, h
	s.view.Resize(w, h)
	s.palette.Layout(float32(w), float32(h))
}

// Frame applies finished loads, advances the camera and renders.
func (s *Session) Frame() {
	s.manager.Poll()
	s.view.Frame()
}

// CommitColor paints a swatch name or color spec on the selection in one step.
func (s *Session) CommitColor(spec string) error {
	col, err := s.resolveColor(spec)
	if err != nil {
		return err
	}
	if err := s.colors.Apply(col); err != nil {
		if errors.Is(err, palette.ErrNoSelection) {
			s.notice("no part selected")
		}
		return err
	}
	return nil
}

// TintMaterial paints every part of the current model whose material is called name.
func (s *Session) TintMaterial(name, spec string) (int, error) {
	col, err := s.resolveColor(spec)
	if err != nil {
		return 0, err
	}
	return palette.TintMaterial(s.manager.Current(), name, col), nil
}

func (s *Session) resolveColor(spec string) (color.RGBA, error) {
	if sw, ok := s.palette.Lookup(spec); ok {
		return sw.Color, nil
	}
	return palette.ParseColor(spec)
}

// ClearSelection deselects every part.
func (s *Session) ClearSelection() {
	if s.colors.Previewing() {
		s.colors.Abort()
		s.onPalette = false
	}
	s.selection.Clear()
}

// Dispose stops in-flight loads and drops the model.
func (s *Session) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.colors.Reset()
	s.selection.Forget()
	s.manager.Dispose()
}

func (s *Session) Graph() *model.Graph { return s.graph }
func (s *Session) Current() *model.Node { return s.manager.Current() }
func (s *Session) Manager() *scene.Manager { return s.manager }
func (s *Session) Selection() *picking.Selection { return s.selection }
func (s *Session) Palette() *palette.Palette { return s.palette }
func (s *Session) ColorState() palette.State { return s.colors.State() }
func (s *Session) Camera() *viewport.Camera { return s.view.Camera() }
func (s *Session) Viewport() *viewport.Controller { return s.view }
func (s *Session) Size() (int, int) { return s.width, s.height }
