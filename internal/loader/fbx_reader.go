package loader

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	fbxMagic      = "Kaydara FBX Binary  \x00\x1a\x00"
	fbxHeaderSize = len(fbxMagic) + 4
	// Files from 7.5 on use 64-bit record offsets.
	fbxWideVersion = 7500
	// fbxMaxInflate bounds a compressed array's claimed size; deflate cannot expand
	// input by more than about 1032:1.
	fbxMaxInflate = 1032
)

var errFBXASCII = errors.New("fbx: ASCII files are not supported")

// fbxNode is one record of the binary FBX tree.
type fbxNode struct {
	Name     string
	Props    []any
	Children []*fbxNode
}

// Child returns the first direct child called name.
func (n *fbxNode) Child(name string) *fbxNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every direct child called name.
func (n *fbxNode) All(name string) []*fbxNode {
	var out []*fbxNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *fbxNode) propInt64(i int) (int64, bool) {
	if i >= len(n.Props) {
		return 0, false
	}
	switch v := n.Props[i].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	}
	return 0, false
}

func (n *fbxNode) propString(i int) string {
	if i >= len(n.Props) {
		return ""
	}
	s, _ := n.Props[i].(string)
	return s
}

func (n *fbxNode) propFloat(i int) (float64, bool) {
	if i >= len(n.Props) {
		return 0, false
	}
	switch v := n.Props[i].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// fbxObjectName strips the "\x00\x01Class" suffix binary files append to object names.
func fbxObjectName(s string) string {
	if i := strings.Index(s, "\x00\x01"); i >= 0 {
		return s[:i]
	}
	return s
}

// fbxCursor walks a whole file held in memory.
type fbxCursor struct {
	buf  []byte
	pos  int
	wide bool
}

func (c *fbxCursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return fmt.Errorf("fbx: truncated at offset %d", c.pos)
	}
	return nil
}

func (c *fbxCursor) u8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *fbxCursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *fbxCursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *fbxCursor) offset() (uint64, error) {
	if c.wide {
		return c.u64()
	}
	v, err := c.u32()
	return uint64(v), err
}

func (c *fbxCursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// parseFBX decodes a binary FBX document into its top-level records.
func parseFBX(data []byte) (*fbxNode, uint32, error) {
	if len(data) < fbxHeaderSize || string(data[:len(fbxMagic)]) != fbxMagic {
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte(";")) || bytes.Contains(data[:min(len(data), 256)], []byte("FBXHeaderExtension:")) {
			return nil, 0, errFBXASCII
		}
		return nil, 0, errors.New("fbx: not a binary FBX file")
	}
	version := binary.LittleEndian.Uint32(data[len(fbxMagic):])
	c := &fbxCursor{buf: data, pos: fbxHeaderSize, wide: version >= fbxWideVersion}

	root := &fbxNode{}
	for c.pos < len(c.buf) {
		n, err := c.node()
		if err != nil {
			return nil, version, err
		}
		if n == nil {
			break
		}
		root.Children = append(root.Children, n)
	}
	return root, version, nil
}

// node reads one record, or returns nil at the null record closing a list.
func (c *fbxCursor) node() (*fbxNode, error) {
	end, err := c.offset()
	if err != nil {
		return nil, err
	}
	numProps, err := c.offset()
	if err != nil {
		return nil, err
	}
	if _, err := c.offset(); err != nil {
		return nil, err
	}
	nameLen, err := c.u8()
	if err != nil {
		return nil, err
	}
	if end == 0 {
		return nil, nil
	}
	if end > uint64(len(c.buf)) || end < uint64(c.pos) {
		return nil, fmt.Errorf("fbx: record end %d out of range", end)
	}
	name, err := c.bytes(int(nameLen))
	if err != nil {
		return nil, err
	}

	n := &fbxNode{Name: string(name)}
	for i := uint64(0); i < numProps; i++ {
		p, err := c.prop()
		if err != nil {
			return nil, fmt.Errorf("fbx: %s property %d: %w", n.Name, i, err)
		}
		n.Props = append(n.Props, p)
	}
	for uint64(c.pos) < end {
		child, err := c.node()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		n.Children = append(n.Children, child)
	}
	c.pos = int(end)
	return n, nil
}

func (c *fbxCursor) prop() (any, error) {
	code, err := c.u8()
	if err != nil {
		return nil, err
	}
	switch code {
	case 'Y':
		b, err := c.bytes(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case 'C':
		b, err := c.u8()
		return b != 0, err
	case 'I':
		v, err := c.u32()
		return int32(v), err
	case 'F':
		v, err := c.u32()
		return math.Float32frombits(v), err
	case 'D':
		v, err := c.u64()
		return math.Float64frombits(v), err
	case 'L':
		v, err := c.u64()
		return int64(v), err
	case 'S', 'R':
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		b, err := c.bytes(int(n))
		if err != nil {
			return nil, err
		}
		if code == 'S' {
			return string(b), nil
		}
		return append([]byte(nil), b...), nil
	case 'f', 'd', 'l', 'i', 'b':
		return c.array(code)
	default:
		return nil, fmt.Errorf("unknown property type %q", code)
	}
}

func (c *fbxCursor) array(code byte) (any, error) {
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := c.u32()
	if err != nil {
		return nil, err
	}
	size, err := c.u32()
	if err != nil {
		return nil, err
	}
	raw, err := c.bytes(int(size))
	if err != nil {
		return nil, err
	}

	elem := map[byte]int64{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	want := int64(count) * elem
	switch encoding {
	case 0:
		if want > int64(len(raw)) {
			return nil, fmt.Errorf("array holds %d bytes, want %d", len(raw), want)
		}
	case 1:
		if want > int64(size)*fbxMaxInflate {
			return nil, fmt.Errorf("array claims %d bytes from %d compressed", want, size)
		}
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out := make([]byte, want)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, fmt.Errorf("inflate array: %w", err)
		}
		raw = out
	default:
		return nil, fmt.Errorf("unknown array encoding %d", encoding)
	}

	le := binary.LittleEndian
	switch code {
	case 'f':
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[i*4:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(le.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(le.Uint32(raw[i*4:]))
		}
		return out, nil
	default:
		out := make([]bool, count)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}

func fbxFloats(v any) []float64 {
	switch a := v.(type) {
	case []float64:
		return a
	case []float32:
		out := make([]float64, len(a))
		for i, f := range a {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}

func fbxInts(v any) []int64 {
	switch a := v.(type) {
	case []int32:
		out := make([]int64, len(a))
		for i, x := range a {
			out[i] = int64(x)
		}
		return out
	case []int64:
		return a
	}
	return nil
}
