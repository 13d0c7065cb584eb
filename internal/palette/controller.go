package palette

import (
	"errors"
	"image/color"

	"moto-viewer/internal/model"
	"moto-viewer/internal/picking"

	"go.uber.org/zap"
)

// ErrNoSelection is returned when a color gesture starts with nothing selected.
var ErrNoSelection = errors.New("no part selected")

// Controller runs color gestures against the selection.
type Controller struct {
	palette   *Palette
	selection *picking.Selection
	log       *zap.Logger

	state    State
	snapshot map[*model.Node]color.RGBA
}

func NewController(p *Palette, sel *picking.Selection, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		palette:   p,
		selection: sel,
		log:       log,
		snapshot:  make(map[*model.Node]color.RGBA),
	}
}

func (c *Controller) State() State {
	return c.state
}

// Previewing reports whether a gesture is in progress.
func (c *Controller) Previewing() bool {
	return c.state == Previewing
}

// Snapshotted reports whether n's original color is held for rollback.
func (c *Controller) Snapshotted(n *model.Node) (color.RGBA, bool) {
	col, ok := c.snapshot[n]
	return col, ok
}

func (c *Controller) event(kind EventKind, x, y float32, held bool) Event {
	e := Event{Kind: kind, OverPalette: c.palette.Contains(x, y), Held: held}
	if s, ok := c.palette.SwatchAt(x, y); ok {
		e.Swatch = &s
	}
	return e
}

// Down handles a press at (x, y). It returns ErrNoSelection when the press lands on the
// palette with nothing selected.
func (c *Controller) Down(x, y float32) error {
	return c.Handle(c.event(Down, x, y, true))
}

// Move handles pointer motion; held is the primary button state.
func (c *Controller) Move(x, y float32, held bool) {
	_ = c.Handle(c.event(Move, x, y, held))
}

// Up handles a release at (x, y).
func (c *Controller) Up(x, y float32) {
	_ = c.Handle(c.event(Up, x, y, false))
}

// Abort ends a gesture with a rollback.
func (c *Controller) Abort() {
	_ = c.Handle(Event{Kind: Abort})
}

// Apply is the one-shot path: press and release on the same color.
func (c *Controller) Apply(col color.RGBA) error {
	s := &Swatch{Color: col}
	if err := c.Handle(Event{Kind: Down, OverPalette: true, Swatch: s, Held: true}); err != nil {
		return err
	}
	return c.Handle(Event{Kind: Up, OverPalette: true, Swatch: s})
}

// Handle advances the state machine and carries out its effects.
func (c *Controller) Handle(e Event) error {
	next, effects := Transition(c.state, e, !c.selection.Empty())
	c.state = next
	var err error
	for _, eff := range effects {
		if runErr := c.run(eff); runErr != nil {
			err = runErr
		}
	}
	return err
}

func (c *Controller) run(eff Effect) error {
	switch eff.Kind {
	case Capture:
		for _, p := range c.selection.Parts() {
			if _, ok := c.snapshot[p]; !ok {
				c.snapshot[p] = p.Mesh.Material.Color
			}
		}
	case Preview:
		for _, p := range c.selection.Parts() {
			p.Mesh.Material.Color = eff.Color
			p.Mesh.Material.Emissive = color.RGBA{}
		}
	case Commit:
		parts := c.selection.Parts()
		for _, p := range parts {
			p.Mesh.Material.Color = eff.Color
		}
		c.selection.Clear()
		c.Reset()
		c.log.Info("color committed", zap.String("color", Hex(eff.Color)), zap.Int("parts", len(parts)))
	case Rollback:
		for p, col := range c.snapshot {
			if c.selection.Contains(p) {
				p.Mesh.Material.Color = col
			}
		}
		c.Reset()
		c.selection.Highlight()
		c.log.Debug("color preview rolled back", zap.Int("parts", c.selection.Len()))
	case NoticeNoSelection:
		c.log.Warn("color gesture ignored", zap.Error(ErrNoSelection))
		return ErrNoSelection
	}
	return nil
}

// Reset drops the snapshot and returns to Idle without restoring colors. Used when the
// parts it refers to are gone.
func (c *Controller) Reset() {
	clear(c.snapshot)
	c.state = Idle
}

// TintMaterial paints col on every part under root whose material is called name and
// returns how many parts changed.
func TintMaterial(root *model.Node, name string, col color.RGBA) int {
	if root == nil {
		return 0
	}
	n := 0
	for _, p := range root.Parts() {
		if p.Mesh.Material.Name == name {
			p.Mesh.Material.Color = col
			n++
		}
	}
	return n
}
