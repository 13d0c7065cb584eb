package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 18
	margin     = 12
	lineHeight = fontSize + 4
	// Text is rebuilt every updateInterval frames to limit allocations.
	updateInterval = 30
)

// Stats is the viewer state shown by the HUD.
type Stats struct {
	Model     string
	Parts     int
	Selected  int
	Loading   bool
	Discarded int
}

// HUD draws runtime overlays in the top-right corner. Everything is off by default.
type HUD struct {
	ShowFPS    bool
	ShowMem    bool
	ShowScene  bool
	font       rl.Font
	frameCount uint32
	lines      []string
	mem        runtime.MemStats
}

func New() *HUD {
	return &HUD{}
}

// SetFont sets the font used for the HUD. Zero texture ID = raylib default.
func (d *HUD) SetFont(font rl.Font) {
	d.font = font
}

// Lines returns the text the HUD shows for st.
func (d *HUD) Lines(st Stats) []string {
	var out []string
	if d.ShowFPS {
		out = append(out, fmt.Sprintf("FPS: %d", rl.GetFPS()))
	}
	if d.ShowMem {
		runtime.ReadMemStats(&d.mem)
		out = append(out, fmt.Sprintf("Mem: %.2f MiB", float64(d.mem.Alloc)/(1024*1024)))
	}
	if d.ShowScene {
		out = append(out, sceneLines(st)...)
	}
	return out
}

func sceneLines(st Stats) []string {
	model := st.Model
	if model == "" {
		model = "-"
	}
	if st.Loading {
		model += " (loading)"
	}
	return []string{
		"Model: " + model,
		fmt.Sprintf("Parts: %d  Selected: %d", st.Parts, st.Selected),
		fmt.Sprintf("Stale loads: %d", st.Discarded),
	}
}

// Draw renders the enabled overlays. Call after the scene and terminal.
func (d *HUD) Draw(st Stats) {
	d.frameCount++
	if d.frameCount%updateInterval == 0 || len(d.lines) == 0 {
		d.lines = d.Lines(st)
	}
	if !d.ShowFPS && !d.ShowMem && !d.ShowScene {
		d.lines = d.lines[:0]
		return
	}
	screenW := float32(rl.GetScreenWidth())
	for i, text := range d.lines {
		y := float32(margin + i*lineHeight)
		if d.font.Texture.ID != 0 {
			w := rl.MeasureTextEx(d.font, text, fontSize, 1).X
			rl.DrawTextEx(d.font, text, rl.NewVector2(screenW-w-margin, y), fontSize, 1, rl.Green)
			continue
		}
		w := float32(rl.MeasureText(text, fontSize))
		rl.DrawText(text, int32(screenW-w-margin), int32(y), fontSize, rl.Green)
	}
}
