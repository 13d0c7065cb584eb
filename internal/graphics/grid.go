package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

const (
	gridExtent     = 10
	gridMajorStep  = 5
	gridMinorAlpha = 40
	gridMajorAlpha = 110
	axisLineAlpha  = 200
)

// drawGrid draws a ground grid on the XZ plane at height y, with the X and Z axes tinted.
func drawGrid(y float32) {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	var start, end rl.Vector3
	for i := -gridExtent; i <= gridExtent; i++ {
		c := minor
		switch {
		case i == 0:
			c = axisZ
		case i%gridMajorStep == 0:
			c = major
		}
		start.X, start.Y, start.Z = float32(i), y, -gridExtent
		end.X, end.Y, end.Z = float32(i), y, gridExtent
		rl.DrawLine3D(start, end, c)

		if i == 0 {
			c = axisX
		}
		start.X, start.Y, start.Z = -gridExtent, y, float32(i)
		end.X, end.Y, end.Z = gridExtent, y, float32(i)
		rl.DrawLine3D(start, end, c)
	}
}
