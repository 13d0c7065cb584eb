package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Swatch is one named color of the palette.
type Swatch struct {
	Name  string
	Color color.RGBA
}

// ParseColor accepts #rgb, #rrggbb and CSS color names.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		hex, ok = strings.CutPrefix(s, "0x")
	}
	if !ok {
		return color.RGBA{}, fmt.Errorf("palette: unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("palette: bad hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("palette: bad hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Rect is a screen rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Palette lays its swatches out as a horizontal strip centered at the bottom of the viewport.
type Palette struct {
	swatches []Swatch
	rects    []Rect
	bounds   Rect
	size     float32
	gap      float32
	margin   float32
}

// Default sizes of the strip, in pixels.
const (
	DefaultSwatchSize = 40
	DefaultGap        = 8
	DefaultMargin     = 24
)

// New returns a palette of swatches. Call Layout before hit-testing.
func New(swatches []Swatch, size, gap float32) *Palette {
	if size <= 0 {
		size = DefaultSwatchSize
	}
	if gap < 0 {
		gap = DefaultGap
	}
	return &Palette{
		swatches: append([]Swatch(nil), swatches...),
		rects:    make([]Rect, len(swatches)),
		size:     size,
		gap:      gap,
		margin:   DefaultMargin,
	}
}

// Layout positions the strip for a w×h viewport.
func (p *Palette) Layout(w, h float32) {
	n := float32(len(p.swatches))
	if n == 0 {
		p.bounds = Rect{}
		return
	}
	total := n*p.size + (n-1)*p.gap
	x := (w - total) / 2
	y := h - p.margin - p.size
	p.bounds = Rect{X: x - p.gap, Y: y - p.gap, W: total + 2*p.gap, H: p.size + 2*p.gap}
	for i := range p.swatches {
		p.rects[i] = Rect{X: x + float32(i)*(p.size+p.gap), Y: y, W: p.size, H: p.size}
	}
}

// Contains reports whether (x, y) lies on the strip, swatch or not.
func (p *Palette) Contains(x, y float32) bool {
	return p.bounds.Contains(x, y)
}

// SwatchAt returns the swatch under (x, y).
func (p *Palette) SwatchAt(x, y float32) (Swatch, bool) {
	for i, r := range p.rects {
		if r.Contains(x, y) {
			return p.swatches[i], true
		}
	}
	return Swatch{}, false
}

// Lookup finds a swatch by name, case-insensitively.
func (p *Palette) Lookup(name string) (Swatch, bool) {
	for _, s := range p.swatches {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Swatch{}, false
}

func (p *Palette) Swatches() []Swatch {
	return p.swatches
}

// Rects returns the swatch rectangles from the last Layout, in swatch order.
func (p *Palette) Rects() []Rect {
	return p.rects
}

// Bounds returns the strip rectangle from the last Layout.
func (p *Palette) Bounds() Rect {
	return p.bounds
}
