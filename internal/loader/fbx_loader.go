package loader

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
)

// FBXLoader decodes binary .fbx files. Every Geometry object becomes one mesh node, with
// the transforms of the Model objects it hangs from baked into its positions.
type FBXLoader struct{}

func NewFBXLoader() *FBXLoader {
	return &FBXLoader{}
}

func (l *FBXLoader) Load(ctx context.Context, path string) (*model.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, _, err := parseFBX(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildFBX(doc, filepath.Base(path))
}

type fbxModel struct {
	name        string
	translation mgl32.Vec3
	rotation    mgl32.Vec3
	scale       mgl32.Vec3
}

func (m *fbxModel) local() mgl32.Mat4 {
	return mathutil.TRS(m.translation, mathutil.EulerXYZ(m.rotation), m.scale)
}

func buildFBX(doc *fbxNode, name string) (*model.Node, error) {
	objects := doc.Child("Objects")
	if objects == nil {
		return nil, errors.New("fbx: no Objects section")
	}

	geometries := make(map[int64]*fbxNode)
	var geometryOrder []int64
	models := make(map[int64]*fbxModel)
	materials := make(map[int64]*model.Material)
	for _, o := range objects.Children {
		id, ok := o.propInt64(0)
		if !ok {
			continue
		}
		switch o.Name {
		case "Geometry":
			if o.propString(2) == "Mesh" {
				geometries[id] = o
				geometryOrder = append(geometryOrder, id)
			}
		case "Model":
			models[id] = readFBXModel(o)
		case "Material":
			materials[id] = readFBXMaterial(o)
		}
	}

	// Connections: "OO", child, parent.
	parentOf := make(map[int64]int64)
	geomModel := make(map[int64]int64)
	modelMaterial := make(map[int64]int64)
	if conns := doc.Child("Connections"); conns != nil {
		for _, c := range conns.All("C") {
			if c.propString(0) != "OO" {
				continue
			}
			child, ok1 := c.propInt64(1)
			parent, ok2 := c.propInt64(2)
			if !ok1 || !ok2 {
				continue
			}
			switch {
			case geometries[child] != nil && models[parent] != nil:
				geomModel[child] = parent
			case materials[child] != nil && models[parent] != nil:
				if _, seen := modelMaterial[parent]; !seen {
					modelMaterial[parent] = child
				}
			case models[child] != nil && models[parent] != nil:
				parentOf[child] = parent
			}
		}
	}

	world := func(id int64) mgl32.Mat4 {
		m := mgl32.Ident4()
		for depth := 0; depth <= len(models); depth++ {
			fm, ok := models[id]
			if !ok {
				break
			}
			m = fm.local().Mul4(m)
			next, ok := parentOf[id]
			if !ok {
				break
			}
			id = next
		}
		return m
	}

	root := model.NewNode(name)
	for _, gid := range geometryOrder {
		g := geometries[gid]
		mesh, err := fbxMesh(g)
		if err != nil {
			return nil, err
		}
		if mesh == nil {
			continue
		}
		partName := fbxObjectName(g.propString(1))
		xf := mgl32.Ident4()
		if mid, ok := geomModel[gid]; ok {
			xf = world(mid)
			if n := models[mid].name; n != "" {
				partName = n
			}
			if matID, ok := modelMaterial[mid]; ok {
				mesh.Material = materials[matID]
			}
		}
		for i, p := range mesh.Positions {
			mesh.Positions[i] = mathutil.Transform(xf, p)
		}
		if mesh.Material == nil {
			mesh.Material = &model.Material{Name: "default", Color: color.RGBA{R: 200, G: 200, B: 200, A: 255}}
		}
		root.AddChild(model.NewMeshNode(partName, mesh))
	}
	return root, nil
}

// fbxMesh fan-triangulates a Geometry's polygons. A negative index (bitwise complement)
// closes a polygon.
func fbxMesh(g *fbxNode) (*model.Mesh, error) {
	vn, in := g.Child("Vertices"), g.Child("PolygonVertexIndex")
	if vn == nil || in == nil || len(vn.Props) == 0 || len(in.Props) == 0 {
		return nil, nil
	}
	coords := fbxFloats(vn.Props[0])
	idx := fbxInts(in.Props[0])
	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("fbx: geometry %q has %d coordinates", fbxObjectName(g.propString(1)), len(coords))
	}

	mesh := &model.Mesh{Positions: make([]mgl32.Vec3, len(coords)/3)}
	for i := range mesh.Positions {
		mesh.Positions[i] = mgl32.Vec3{float32(coords[3*i]), float32(coords[3*i+1]), float32(coords[3*i+2])}
	}
	var poly []uint32
	for _, raw := range idx {
		last := raw < 0
		if last {
			raw = ^raw
		}
		if raw >= int64(len(mesh.Positions)) {
			return nil, fmt.Errorf("fbx: polygon vertex %d out of range", raw)
		}
		poly = append(poly, uint32(raw))
		if !last {
			continue
		}
		for k := 1; k+1 < len(poly); k++ {
			mesh.Indices = append(mesh.Indices, poly[0], poly[k], poly[k+1])
		}
		poly = poly[:0]
	}
	if len(mesh.Indices) == 0 {
		return nil, nil
	}
	return mesh, nil
}

func readFBXModel(o *fbxNode) *fbxModel {
	m := &fbxModel{name: fbxObjectName(o.propString(1)), scale: mgl32.Vec3{1, 1, 1}}
	for _, p := range fbxProperties70(o) {
		switch p.propString(0) {
		case "Lcl Translation":
			m.translation = fbxVec3(p, m.translation)
		case "Lcl Rotation":
			m.rotation = fbxVec3(p, m.rotation)
		case "Lcl Scaling":
			m.scale = fbxVec3(p, m.scale)
		}
	}
	return m
}

func readFBXMaterial(o *fbxNode) *model.Material {
	m := &model.Material{Name: fbxObjectName(o.propString(1)), Color: color.RGBA{R: 200, G: 200, B: 200, A: 255}}
	for _, p := range fbxProperties70(o) {
		switch p.propString(0) {
		case "DiffuseColor", "Diffuse":
			c := fbxVec3(p, mgl32.Vec3{0.8, 0.8, 0.8})
			m.Color = color.RGBA{R: unit8(float64(c[0])), G: unit8(float64(c[1])), B: unit8(float64(c[2])), A: 255}
		}
	}
	return m
}

func fbxProperties70(o *fbxNode) []*fbxNode {
	if p := o.Child("Properties70"); p != nil {
		return p.All("P")
	}
	return nil
}

// fbxVec3 reads the three values that follow the name, type, label and flags of a P record.
func fbxVec3(p *fbxNode, def mgl32.Vec3) mgl32.Vec3 {
	x, ok1 := p.propFloat(4)
	y, ok2 := p.propFloat(5)
	z, ok3 := p.propFloat(6)
	if !ok1 || !ok2 || !ok3 {
		return def
	}
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}
