package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

// Window describes the viewer window.
type Window struct {
	Title         string
	Width, Height int
	TargetFPS     int
}

var background = rl.NewColor(24, 26, 30, 255)

// Run opens a resizable window and calls frame between BeginDrawing and EndDrawing until
// the window is closed. ESC is left to the overlay; close via the window button.
// cleanup runs while the GL context still exists, so GPU resources can be released there.
func Run(w Window, frame func(), cleanup ...func()) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint | rl.FlagVsyncHint)
	rl.InitWindow(int32(w.Width), int32(w.Height), w.Title)
	defer rl.CloseWindow()

	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(int32(w.TargetFPS))

	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		rl.ClearBackground(background)
		frame()
		rl.EndDrawing()
	}
	for _, fn := range cleanup {
		fn()
	}
}
