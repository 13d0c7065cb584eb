package viewport

import "moto-viewer/internal/model"

// Renderer draws the graph through a camera into an output of a given size.
type Renderer interface {
	SetSize(w, h int)
	Size() (w, h int)
	Render(graph *model.Graph, camera *Camera)
}

// Controller runs the per-frame update and keeps camera and renderer in step with the
// viewport size.
type Controller struct {
	graph    *model.Graph
	camera   *Camera
	controls *OrbitControls
	renderer Renderer
	frames   uint64
}

func NewController(graph *model.Graph, camera *Camera, controls *OrbitControls, renderer Renderer) *Controller {
	return &Controller{graph: graph, camera: camera, controls: controls, renderer: renderer}
}

// Frame advances the orbit controls and renders the current graph.
func (c *Controller) Frame() {
	c.controls.Update()
	c.renderer.Render(c.graph, c.camera)
	c.frames++
}

// Resize matches camera aspect and renderer output to a w×h viewport. Zero or negative
// sizes, as reported while a window is minimized, are ignored.
func (c *Controller) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.camera.SetAspect(float32(w) / float32(h))
	c.controls.SetViewportHeight(float32(h))
	c.renderer.SetSize(w, h)
}

func (c *Controller) Camera() *Camera {
	return c.camera
}

// Frames returns how many frames have been rendered.
func (c *Controller) Frames() uint64 {
	return c.frames
}
