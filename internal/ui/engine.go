package ui

import (
	"image/color"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"moto-viewer/internal/ui/style"
)

// Engine holds the stylesheet and font and draws nodes with raylib.
// Computed styles are cached per class and id until the stylesheet changes.
type Engine struct {
	sheet *style.Sheet
	cache map[[2]string]style.Computed
	font  rl.Font
}

// New creates an engine with the given stylesheet, which may be nil.
func New(sheet *style.Sheet) *Engine {
	return &Engine{sheet: sheet, cache: make(map[[2]string]style.Computed)}
}

// LoadCSS parses the stylesheet at path and replaces the current one.
func (e *Engine) LoadCSS(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sheet, err := style.Parse(f)
	if err != nil {
		return err
	}
	e.SetStylesheet(sheet)
	return nil
}

func (e *Engine) SetStylesheet(sheet *style.Sheet) {
	e.sheet = sheet
	clear(e.cache)
}

// LoadFont loads a TTF/OTF font. Call after the window exists. On failure the engine keeps
// its current font.
func (e *Engine) LoadFont(path string) error {
	f := rl.LoadFont(path)
	if f.Texture.ID == 0 {
		return os.ErrNotExist
	}
	if e.font.Texture.ID != 0 {
		rl.UnloadFont(e.font)
	}
	e.font = f
	return nil
}

// Font returns the loaded font; its texture ID is zero when none is loaded.
func (e *Engine) Font() rl.Font {
	return e.font
}

// Style returns the computed style of n.
func (e *Engine) Style(n *Node) style.Computed {
	key := [2]string{n.Class, n.ID}
	if c, ok := e.cache[key]; ok {
		return c
	}
	c := e.sheet.Resolve(n.Class, n.ID)
	e.cache[key] = c
	return c
}

// Layout resolves n.Bounds from its style for the current screen. Percent offsets place
// the node within the space left over by its size, so 50% centers.
func (e *Engine) Layout(n *Node) style.Computed {
	st := e.Style(n)
	if n.Placed {
		return st
	}
	w, h := float32(st.Width), float32(st.Height)
	if w == 0 && n.Text != "" {
		w = e.MeasureText(n.Text, st.FontSize) + 2*float32(st.Padding)
	}
	if h == 0 && n.Text != "" {
		h = float32(st.FontSize) + 2*float32(st.Padding)
	}
	x, y := float32(st.Left), float32(st.Top)
	if st.LeftPct >= 0 {
		x = (float32(rl.GetScreenWidth()) - w) * float32(st.LeftPct) / 100
	}
	if st.TopPct >= 0 {
		y = (float32(rl.GetScreenHeight()) - h) * float32(st.TopPct) / 100
	}
	n.Bounds = rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	return st
}

// MeasureText returns the pixel width of s at size.
func (e *Engine) MeasureText(s string, size int32) float32 {
	if e.font.Texture.ID != 0 {
		return rl.MeasureTextEx(e.font, s, float32(size), 1).X
	}
	return float32(rl.MeasureText(s, size))
}

// Text draws s at (x, y).
func (e *Engine) Text(s string, x, y float32, size int32, c color.RGBA) {
	if e.font.Texture.ID != 0 {
		rl.DrawTextEx(e.font, s, rl.NewVector2(x, y), float32(size), 1, rgba(c))
		return
	}
	rl.DrawText(s, int32(x), int32(y), size, rgba(c))
}

// Draw lays out and draws nodes in order: background, 1px border, then text.
func (e *Engine) Draw(nodes ...*Node) {
	for _, n := range nodes {
		st := e.Layout(n)
		b := n.Bounds
		if st.Background.A > 0 {
			rl.DrawRectangleRec(b, rgba(st.Background))
		}
		if st.HasBorder && b.Width > 0 && b.Height > 0 {
			rl.DrawRectangleLinesEx(b, 1, rgba(st.Border))
		}
		if n.Text != "" {
			e.Text(n.Text, b.X+float32(st.Padding), b.Y+float32(st.Padding), st.FontSize, st.Color)
		}
	}
}

func rgba(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}
