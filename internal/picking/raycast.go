package picking

import (
	"sort"

	"moto-viewer/internal/mathutil"
	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
)

// NDC maps a pixel position inside a w×h viewport to normalized device coordinates in
// [-1, 1] on both axes, with +Y up.
func NDC(x, y, w, h float32) (float32, float32) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return x/w*2 - 1, -(y/h*2 - 1)
}

// Hit is one node crossed by a ray.
type Hit struct {
	Node     *model.Node
	Distance float32
	Point    mgl32.Vec3
}

// Intersect returns every node under root whose geometry the ray crosses, nearest first.
// Each node appears once, at its nearest triangle.
func Intersect(root *model.Node, ray mathutil.Ray) []Hit {
	if root == nil {
		return nil
	}
	var hits []Hit
	root.Walk(func(n *model.Node) bool {
		if n.Mesh == nil || n.Mesh.TriangleCount() == 0 {
			return true
		}
		offset := n.WorldTranslation()
		// Test in mesh space instead of moving every triangle.
		local := mathutil.Ray{Origin: ray.Origin.Sub(offset), Dir: ray.Dir}
		if !local.IntersectBox(n.Mesh.Bounds()) {
			return true
		}
		best, found := float32(0), false
		for i := 0; i < n.Mesh.TriangleCount(); i++ {
			a, b, c := n.Mesh.Triangle(i)
			if d, ok := local.IntersectTriangle(a, b, c); ok && (!found || d < best) {
				best, found = d, true
			}
		}
		if found {
			hits = append(hits, Hit{Node: n, Distance: best, Point: ray.At(best)})
		}
		return true
	})
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}
