package graphics

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"
	"moto-viewer/internal/viewport"
)

var fallbackColor = color.RGBA{128, 128, 128, 255}

// gpuMesh is an uploaded part. The slices back the vertex data raylib points into.
type gpuMesh struct {
	mesh      rl.Mesh
	positions []float32
	normals   []float32
	frame     uint64
}

// Renderer draws the scene graph with raylib. Parts are uploaded the first time they are
// drawn and released once they stop being drawn, so it must only be used on the thread
// that owns the GL context.
type Renderer struct {
	GridVisible bool
	Lights      Lights

	log    *zap.Logger
	w, h   int
	ready  bool
	shader litShader
	mtl    rl.Material
	meshes map[uint64]*gpuMesh
	frame  uint64
}

func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		GridVisible: true,
		Lights:      DefaultLights(),
		log:         log,
		meshes:      make(map[uint64]*gpuMesh),
	}
}

// SetSize records the output size. The window itself is sized by the OS.
func (r *Renderer) SetSize(w, h int) {
	r.w, r.h = w, h
}

func (r *Renderer) Size() (int, int) {
	return r.w, r.h
}

// ensureReady creates GPU state on first use, after the window exists.
func (r *Renderer) ensureReady() {
	if r.ready {
		return
	}
	r.ready = true
	r.shader = loadLitShader()
	r.mtl = rl.LoadMaterialDefault()
	if rl.IsShaderValid(r.shader.shader) {
		r.mtl.Shader = r.shader.shader
	} else {
		r.log.Warn("lit shader failed to compile; using raylib default")
	}
}

// Render draws graph through cam. Call between BeginDrawing and EndDrawing.
func (r *Renderer) Render(graph *model.Graph, cam *viewport.Camera) {
	r.ensureReady()
	r.frame++

	rl.BeginMode3D(toCamera(cam))
	if r.GridVisible {
		drawGrid(floor(graph))
	}
	r.shader.setFrame(cam.Position, r.Lights)
	rl.DisableBackfaceCulling()
	for _, root := range graph.Roots() {
		root.Walk(func(n *model.Node) bool {
			if n.Mesh != nil {
				r.drawPart(n)
			}
			return true
		})
	}
	rl.EnableBackfaceCulling()
	rl.EndMode3D()

	r.evict()
}

func (r *Renderer) drawPart(n *model.Node) {
	gm := r.upload(n)
	if gm == nil {
		return
	}
	gm.frame = r.frame

	base, glow := fallbackColor, color.RGBA{}
	if m := n.Mesh.Material; m != nil {
		base, glow = m.Color, m.Emissive
	}
	if albedo := r.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = rl.NewColor(base.R, base.G, base.B, base.A)
	}
	r.shader.setEmissive(glow)

	t := n.WorldTranslation()
	rl.DrawMesh(gm.mesh, r.mtl, rl.MatrixTranslate(t[0], t[1], t[2]))
}

// upload returns the GPU mesh for n, uploading it on first use.
func (r *Renderer) upload(n *model.Node) *gpuMesh {
	if gm, ok := r.meshes[n.ID]; ok {
		return gm
	}
	pos, nrm := n.Mesh.Flatten()
	if len(pos) == 0 {
		return nil
	}
	gm := &gpuMesh{positions: pos, normals: nrm}
	gm.mesh = rl.Mesh{
		VertexCount:   int32(len(pos) / 3),
		TriangleCount: int32(len(pos) / 9),
		Vertices:      &gm.positions[0],
		Normals:       &gm.normals[0],
	}
	rl.UploadMesh(&gm.mesh, false)
	r.meshes[n.ID] = gm
	r.log.Debug("mesh uploaded", zap.String("part", n.Label()), zap.Int32("triangles", gm.mesh.TriangleCount))
	return gm
}

// evict releases meshes that were not drawn this frame, such as those of a replaced model.
func (r *Renderer) evict() {
	for id, gm := range r.meshes {
		if gm.frame != r.frame {
			rl.UnloadMesh(&gm.mesh)
			delete(r.meshes, id)
		}
	}
}

// Unload releases every GPU resource. Call before the window closes.
func (r *Renderer) Unload() {
	for id, gm := range r.meshes {
		rl.UnloadMesh(&gm.mesh)
		delete(r.meshes, id)
	}
	if r.ready && rl.IsShaderValid(r.shader.shader) {
		rl.UnloadShader(r.shader.shader)
	}
	r.ready = false
}

func toCamera(c *viewport.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Position),
		Target:     vec(c.Target),
		Up:         vec(c.Up),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

func vec(v mgl32.Vec3) rl.Vector3 {
	return rl.NewVector3(v[0], v[1], v[2])
}

// floor is the height of the lowest point in the graph, where the grid goes.
func floor(g *model.Graph) float32 {
	b := mathutil.EmptyBox()
	for _, root := range g.Roots() {
		b = b.Union(root.WorldBounds())
	}
	if b.IsEmpty() {
		return 0
	}
	return b.Min[1]
}
