package model

import (
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"

	"moto-viewer/internal/mathutil"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedMesh is returned by Mesh.Validate.
var ErrMalformedMesh = errors.New("malformed mesh")

// nextID hands out node identities. Loads build trees on worker goroutines, so it is atomic.
var nextID atomic.Uint64

// Material is the mutable surface state of one mesh: a base color and an emissive glow
// used to highlight selected parts. Loaders give every mesh its own Material.
type Material struct {
	Name     string
	Color    color.RGBA
	Emissive color.RGBA
}

// Clone returns an independent copy of m.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Mesh holds triangles in the owning node's space. Indices may be nil, in which case every
// three positions form one triangle.
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32
	Material  *Material
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	if m.Indices != nil {
		return m.Positions[m.Indices[3*i]], m.Positions[m.Indices[3*i+1]], m.Positions[m.Indices[3*i+2]]
	}
	return m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]
}

// Validate reports ErrMalformedMesh unless every triangle the mesh describes can be read:
// whole triangles only, and every index within Positions.
func (m *Mesh) Validate() error {
	if m.Indices == nil {
		if len(m.Positions)%3 != 0 {
			return fmt.Errorf("%w: %d positions do not form whole triangles", ErrMalformedMesh, len(m.Positions))
		}
		return nil
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices do not form whole triangles", ErrMalformedMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at %d is past %d positions", ErrMalformedMesh, idx, i, len(m.Positions))
		}
	}
	return nil
}

// Bounds returns the box around every position of the mesh.
func (m *Mesh) Bounds() mathutil.Box3 {
	b := mathutil.EmptyBox()
	for _, p := range m.Positions {
		b = b.ExpandPoint(p)
	}
	return b
}

// Flatten expands the mesh into unindexed triangles for upload: three floats per vertex,
// with every corner carrying its face normal.
func (m *Mesh) Flatten() (positions, normals []float32) {
	n := m.TriangleCount()
	positions = make([]float32, 0, n*9)
	normals = make([]float32, 0, n*9)
	for i := 0; i < n; i++ {
		a, b, c := m.Triangle(i)
		nrm := mathutil.FaceNormal(a, b, c)
		for _, p := range [3]mgl32.Vec3{a, b, c} {
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, nrm[0], nrm[1], nrm[2])
		}
	}
	return positions, normals
}

// Node is one element of a model tree. Nodes only carry a translation; loaders bake
// rotation and scale into mesh positions.
type Node struct {
	ID          uint64
	Name        string
	Translation mgl32.Vec3
	Mesh        *Mesh

	parent   *Node
	children []*Node
}

// NewNode returns a node with a fresh identity.
func NewNode(name string) *Node {
	return &Node{ID: nextID.Add(1), Name: name}
}

// NewMeshNode returns a node carrying mesh.
func NewMeshNode(name string, mesh *Mesh) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	return n
}

// AddChild attaches c under n, detaching it from any previous parent.
func (n *Node) AddChild(c *Node) {
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsPart reports whether n is a selectable part: a mesh with a material to tint.
func (n *Node) IsPart() bool {
	return n.Mesh != nil && n.Mesh.Material != nil
}

// Label returns a human-readable name for the node.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	if n.Mesh != nil && n.Mesh.Material != nil && n.Mesh.Material.Name != "" {
		return n.Mesh.Material.Name
	}
	return fmt.Sprintf("part-%d", n.ID)
}

// Walk visits n and its descendants depth-first. Returning false from fn skips the
// node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Parts returns every selectable descendant of n, including n itself, in walk order.
func (n *Node) Parts() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.IsPart() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// WorldTranslation returns the sum of the translations from the root down to n.
func (n *Node) WorldTranslation() mgl32.Vec3 {
	var t mgl32.Vec3
	for c := n; c != nil; c = c.parent {
		t = t.Add(c.Translation)
	}
	return t
}

// WorldBounds returns the box around all geometry in n's subtree, in world space.
func (n *Node) WorldBounds() mathutil.Box3 {
	b := mathutil.EmptyBox()
	n.Walk(func(c *Node) bool {
		if c.Mesh != nil {
			b = b.Union(c.Mesh.Bounds().Translate(c.WorldTranslation()))
		}
		return true
	})
	return b
}
