package loader

import (
	"context"
	"fmt"
	"image/color"

	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFLoader decodes .glb and .gltf files.
type GLTFLoader struct{}

func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{}
}

func (l *GLTFLoader) Load(ctx context.Context, path string) (*model.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return buildGLTF(ctx, doc, path)
}

// buildGLTF flattens the default scene into one root whose children are one mesh node per
// primitive, with world transforms baked into the positions.
func buildGLTF(ctx context.Context, doc *gltf.Document, name string) (*model.Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, fmt.Errorf("gltf: no scenes")
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < 0 || sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("gltf: default scene %d out of range", sceneIdx)
	}

	materials := make([]*model.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i] = gltfMaterial(m, i)
	}

	root := model.NewNode(doc.Scenes[sceneIdx].Name)
	if root.Name == "" {
		root.Name = name
	}

	var visit func(idx int, parent mgl32.Mat4, depth int) error
	visit = func(idx int, parent mgl32.Mat4, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("gltf: node %d out of range", idx)
		}
		if depth > len(doc.Nodes) {
			return fmt.Errorf("gltf: node hierarchy has a cycle")
		}
		n := doc.Nodes[idx]
		world := parent.Mul4(gltfLocal(n))
		if n.Mesh != nil {
			if err := addGLTFMesh(doc, root, n, *n.Mesh, world, materials); err != nil {
				return err
			}
		}
		for _, c := range n.Children {
			if err := visit(c, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, idx := range doc.Scenes[sceneIdx].Nodes {
		if err := visit(idx, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func addGLTFMesh(doc *gltf.Document, root *model.Node, n *gltf.Node, meshIdx int, world mgl32.Mat4, materials []*model.Material) error {
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return fmt.Errorf("gltf: mesh %d out of range", meshIdx)
	}
	gm := doc.Meshes[meshIdx]
	label := n.Name
	if label == "" {
		label = gm.Name
	}
	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok || posIdx >= len(doc.Accessors) {
			continue
		}
		raw, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("gltf: mesh %q positions: %w", gm.Name, err)
		}
		mesh := &model.Mesh{Positions: make([]mgl32.Vec3, len(raw))}
		for i, v := range raw {
			mesh.Positions[i] = mathutil.Transform(world, mgl32.Vec3(v))
		}
		if p.Indices != nil && *p.Indices < len(doc.Accessors) {
			mesh.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
			if err != nil {
				return fmt.Errorf("gltf: mesh %q indices: %w", gm.Name, err)
			}
		}
		if err := mesh.Validate(); err != nil {
			return fmt.Errorf("gltf: mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		if p.Material != nil && *p.Material < len(materials) {
			mesh.Material = materials[*p.Material]
		} else {
			mesh.Material = &model.Material{Name: "default", Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}}
		}
		partName := label
		if len(gm.Primitives) > 1 && partName != "" {
			partName = fmt.Sprintf("%s.%d", label, pi)
		}
		root.AddChild(model.NewMeshNode(partName, mesh))
	}
	return nil
}

func gltfLocal(n *gltf.Node) mgl32.Mat4 {
	m := n.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		var c mgl32.Mat4
		for i, v := range m {
			c[i] = float32(v)
		}
		return c
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return mathutil.TRS(
		mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	)
}

func gltfMaterial(m *gltf.Material, i int) *model.Material {
	out := &model.Material{Name: m.Name, Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}}
	if out.Name == "" {
		out.Name = fmt.Sprintf("material-%d", i)
	}
	if m.PBRMetallicRoughness != nil && m.PBRMetallicRoughness.BaseColorFactor != nil {
		f := *m.PBRMetallicRoughness.BaseColorFactor
		out.Color = color.RGBA{R: unit8(f[0]), G: unit8(f[1]), B: unit8(f[2]), A: unit8(f[3])}
	}
	return out
}

// unit8 maps a [0, 1] channel to a byte.
func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
