package loader

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"

	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/udhos/gwob"
	"go.uber.org/zap"
)

// OBJLoader decodes Wavefront .obj files, one mesh node per group. Diffuse colors come
// from the material library named by mtllib when it sits next to the .obj.
type OBJLoader struct {
	log *zap.Logger
}

func NewOBJLoader(log *zap.Logger) *OBJLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &OBJLoader{log: log}
}

func (l *OBJLoader) Load(ctx context.Context, path string) (*model.Node, error) {
	opts := &gwob.ObjParserOptions{
		Logger: func(msg string) { l.log.Debug("obj parser", zap.String("path", path), zap.String("msg", msg)) },
	}
	obj, err := gwob.NewObjFromFile(path, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lib gwob.MaterialLib
	if obj.Mtllib != "" {
		mtl := filepath.Join(filepath.Dir(path), obj.Mtllib)
		if lib, err = gwob.ReadMaterialLibFromFile(mtl, opts); err != nil {
			// Missing or broken libraries only cost the colors.
			l.log.Warn("obj material library unreadable", zap.String("path", mtl), zap.Error(err))
		}
	}

	root := model.NewNode(filepath.Base(path))
	for i, g := range obj.Groups {
		mesh, err := objGroupMesh(obj, g)
		if err != nil {
			return nil, err
		}
		if mesh == nil {
			continue
		}
		mesh.Material = objMaterial(lib, g.Usemtl)
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("group-%d", i)
		}
		root.AddChild(model.NewMeshNode(name, mesh))
	}
	return root, nil
}

// objGroupMesh copies the positions one group references into a compact mesh.
func objGroupMesh(obj *gwob.Obj, g *gwob.Group) (*model.Mesh, error) {
	if g.IndexCount < 3 {
		return nil, nil
	}
	end := g.IndexBegin + g.IndexCount
	if g.IndexBegin < 0 || end > len(obj.Indices) {
		return nil, fmt.Errorf("obj: group %q indexes past the index buffer", g.Name)
	}
	stride := obj.StrideSize / 4
	offset := obj.StrideOffsetPosition / 4
	if stride < 3 {
		stride = 3
	}

	remap := make(map[int]uint32)
	mesh := &model.Mesh{Indices: make([]uint32, 0, g.IndexCount-g.IndexCount%3)}
	for _, idx := range obj.Indices[g.IndexBegin : end-g.IndexCount%3] {
		local, ok := remap[idx]
		if !ok {
			base := idx*stride + offset
			if idx < 0 || base+2 >= len(obj.Coord) {
				return nil, fmt.Errorf("obj: group %q vertex %d out of range", g.Name, idx)
			}
			local = uint32(len(mesh.Positions))
			remap[idx] = local
			mesh.Positions = append(mesh.Positions, mgl32.Vec3{obj.Coord[base], obj.Coord[base+1], obj.Coord[base+2]})
		}
		mesh.Indices = append(mesh.Indices, local)
	}
	return mesh, nil
}

func objMaterial(lib gwob.MaterialLib, name string) *model.Material {
	m := &model.Material{Name: name, Color: color.RGBA{R: 200, G: 200, B: 200, A: 255}}
	if name == "" {
		m.Name = "default"
	}
	if lib.Lib == nil {
		return m
	}
	if mtl, ok := lib.Lib[name]; ok {
		m.Color = color.RGBA{
			R: unit8(float64(mtl.Kd[0])),
			G: unit8(float64(mtl.Kd[1])),
			B: unit8(float64(mtl.Kd[2])),
			A: 255,
		}
	}
	return m
}
