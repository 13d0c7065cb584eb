package loader

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fbxRec describes one record for the test encoder.
type fbxRec struct {
	name     string
	props    []any
	children []fbxRec
}

// zipped marks a float64 array the encoder stores deflated.
type zipped []float64

// oversized is a deflated float64 array whose header claims count elements.
type oversized struct {
	count uint32
	data  []float64
}

func encodeFBX(t *testing.T, version uint32, recs ...fbxRec) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(fbxMagic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, version))
	for _, r := range recs {
		writeFBXRec(t, &buf, r)
	}
	buf.Write(make([]byte, 13))
	return buf.Bytes()
}

func writeFBXRec(t *testing.T, buf *bytes.Buffer, r fbxRec) {
	start := buf.Len()
	buf.Write(make([]byte, 12))
	buf.WriteByte(byte(len(r.name)))
	buf.WriteString(r.name)
	propStart := buf.Len()
	for _, p := range r.props {
		writeFBXProp(t, buf, p)
	}
	propLen := buf.Len() - propStart
	if len(r.children) > 0 {
		for _, c := range r.children {
			writeFBXRec(t, buf, c)
		}
		buf.Write(make([]byte, 13))
	}
	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b[start:], uint32(buf.Len()))
	binary.LittleEndian.PutUint32(b[start+4:], uint32(len(r.props)))
	binary.LittleEndian.PutUint32(b[start+8:], uint32(propLen))
}

func writeFBXProp(t *testing.T, buf *bytes.Buffer, p any) {
	le := binary.LittleEndian
	switch v := p.(type) {
	case string:
		buf.WriteByte('S')
		require.NoError(t, binary.Write(buf, le, uint32(len(v))))
		buf.WriteString(v)
	case int64:
		buf.WriteByte('L')
		require.NoError(t, binary.Write(buf, le, v))
	case int32:
		buf.WriteByte('I')
		require.NoError(t, binary.Write(buf, le, v))
	case float64:
		buf.WriteByte('D')
		require.NoError(t, binary.Write(buf, le, v))
	case []float64:
		buf.WriteByte('d')
		require.NoError(t, binary.Write(buf, le, []uint32{uint32(len(v)), 0, uint32(len(v) * 8)}))
		require.NoError(t, binary.Write(buf, le, v))
	case zipped:
		raw := make([]byte, len(v)*8)
		for i, f := range v {
			le.PutUint64(raw[i*8:], math.Float64bits(f))
		}
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		_, err := zw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		buf.WriteByte('d')
		require.NoError(t, binary.Write(buf, le, []uint32{uint32(len(v)), 1, uint32(z.Len())}))
		buf.Write(z.Bytes())
	case oversized:
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		require.NoError(t, binary.Write(zw, le, v.data))
		require.NoError(t, zw.Close())
		buf.WriteByte('d')
		require.NoError(t, binary.Write(buf, le, []uint32{v.count, 1, uint32(z.Len())}))
		buf.Write(z.Bytes())
	case []int32:
		buf.WriteByte('i')
		require.NoError(t, binary.Write(buf, le, []uint32{uint32(len(v)), 0, uint32(len(v) * 4)}))
		require.NoError(t, binary.Write(buf, le, v))
	default:
		t.Fatalf("unsupported test property %T", p)
	}
}

func prop70(name string, x, y, z float64) fbxRec {
	return fbxRec{name: "P", props: []any{name, name, "", "A", x, y, z}}
}

func bikeFBX(t *testing.T) []byte {
	return encodeFBX(t, 7400,
		fbxRec{name: "FBXHeaderExtension", children: []fbxRec{{name: "FBXVersion", props: []any{int32(7400)}}}},
		fbxRec{name: "Objects", children: []fbxRec{
			{name: "Geometry", props: []any{int64(10), "TankGeo\x00\x01Geometry", "Mesh"}, children: []fbxRec{
				{name: "Vertices", props: []any{zipped{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}}},
				// one quad, closed by the complemented index
				{name: "PolygonVertexIndex", props: []any{[]int32{0, 1, 2, ^int32(3)}}},
			}},
			{name: "Geometry", props: []any{int64(11), "Loose\x00\x01Geometry", "Mesh"}, children: []fbxRec{
				{name: "Vertices", props: []any{[]float64{0, 0, 0, 1, 0, 0, 0, 1, 0}}},
				{name: "PolygonVertexIndex", props: []any{[]int32{0, 1, ^int32(2)}}},
			}},
			{name: "Model", props: []any{int64(20), "Tank\x00\x01Model", "Mesh"}, children: []fbxRec{
				{name: "Properties70", children: []fbxRec{prop70("Lcl Translation", 1, 0, 0)}},
			}},
			{name: "Model", props: []any{int64(21), "Frame\x00\x01Model", "Null"}, children: []fbxRec{
				{name: "Properties70", children: []fbxRec{prop70("Lcl Translation", 0, 5, 0)}},
			}},
			{name: "Material", props: []any{int64(30), "Blue\x00\x01Material", ""}, children: []fbxRec{
				{name: "Properties70", children: []fbxRec{prop70("DiffuseColor", 0, 0, 1)}},
			}},
		}},
		fbxRec{name: "Connections", children: []fbxRec{
			{name: "C", props: []any{"OO", int64(10), int64(20)}},
			{name: "C", props: []any{"OO", int64(30), int64(20)}},
			{name: "C", props: []any{"OO", int64(20), int64(21)}},
			{name: "C", props: []any{"OO", int64(21), int64(0)}},
		}},
	)
}

func TestParseFBX_Records(t *testing.T) {
	doc, version, err := parseFBX(bikeFBX(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(7400), version)
	require.Len(t, doc.Children, 3)

	objects := doc.Child("Objects")
	require.NotNil(t, objects)
	assert.Len(t, objects.All("Geometry"), 2)
	verts := objects.All("Geometry")[0].Child("Vertices")
	require.NotNil(t, verts)
	assert.Len(t, fbxFloats(verts.Props[0]), 12)
}

func TestParseFBX_RejectsASCIIAndGarbage(t *testing.T) {
	_, _, err := parseFBX([]byte("; FBX 7.4.0 project file\nFBXHeaderExtension:  {\n}"))
	assert.ErrorIs(t, err, errFBXASCII)

	_, _, err = parseFBX([]byte("garbage"))
	assert.Error(t, err)

	data := bikeFBX(t)
	_, _, err = parseFBX(data[:len(data)/2])
	assert.Error(t, err)
}

func TestParseFBX_RejectsImplausibleArrayCounts(t *testing.T) {
	tests := []struct {
		name string
		prop any
	}{
		// About 32 GiB claimed by a few dozen bytes.
		{"compressed", oversized{count: math.MaxUint32, data: []float64{1, 2, 3}}},
		{"short inflate", oversized{count: 64, data: []float64{1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeFBX(t, 7400, fbxRec{name: "Vertices", props: []any{tt.prop}})
			_, _, err := parseFBX(data)
			assert.Error(t, err)
		})
	}
}

func TestFBXLoader_BuildsParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bike.fbx")
	require.NoError(t, os.WriteFile(path, bikeFBX(t), 0o644))

	root, err := NewRegistry(filepath.Dir(path)).Load(context.Background(), path)
	require.NoError(t, err)

	parts := root.Parts()
	require.Len(t, parts, 2)

	tank := parts[0]
	assert.Equal(t, "Tank", tank.Label())
	assert.Equal(t, 2, tank.Mesh.TriangleCount())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, tank.Mesh.Indices)
	// Tank sits at x=1 under Frame at y=5.
	assert.True(t, tank.Mesh.Positions[0].ApproxEqualThreshold(mgl32.Vec3{1, 5, 0}, 1e-5))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, tank.Mesh.Material.Color)

	loose := parts[1]
	assert.Equal(t, "Loose", loose.Label())
	assert.Equal(t, 1, loose.Mesh.TriangleCount())
	assert.NotSame(t, tank.Mesh.Material, loose.Mesh.Material)
}

func TestFBXLoader_RotationIsBaked(t *testing.T) {
	data := encodeFBX(t, 7400,
		fbxRec{name: "Objects", children: []fbxRec{
			{name: "Geometry", props: []any{int64(1), "G\x00\x01Geometry", "Mesh"}, children: []fbxRec{
				{name: "Vertices", props: []any{[]float64{1, 0, 0, 0, 0, 1, 0, 0, -1}}},
				{name: "PolygonVertexIndex", props: []any{[]int32{0, 1, ^int32(2)}}},
			}},
			{name: "Model", props: []any{int64(2), "Spoke\x00\x01Model", "Mesh"}, children: []fbxRec{
				{name: "Properties70", children: []fbxRec{prop70("Lcl Rotation", 0, 0, 90)}},
			}},
		}},
		fbxRec{name: "Connections", children: []fbxRec{
			{name: "C", props: []any{"OO", int64(1), int64(2)}},
		}},
	)
	doc, _, err := parseFBX(data)
	require.NoError(t, err)
	root, err := buildFBX(doc, "spoke.fbx")
	require.NoError(t, err)
	parts := root.Parts()
	require.Len(t, parts, 1)
	assert.True(t, parts[0].Mesh.Positions[0].ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5))
}
