package loader

import (
	"path/filepath"
	"strings"
)

// Format identifies one of the supported model file families.
type Format int

const (
	// FormatGLTF covers binary .glb and JSON .gltf files.
	FormatGLTF Format = iota + 1
	// FormatOBJ covers Wavefront .obj files.
	FormatOBJ
	// FormatFBX covers binary Autodesk .fbx files.
	FormatFBX
)

func (f Format) String() string {
	switch f {
	case FormatGLTF:
		return "gltf"
	case FormatOBJ:
		return "obj"
	case FormatFBX:
		return "fbx"
	default:
		return "unknown"
	}
}

// ParseFormat resolves the format of path from its extension, case-insensitively.
func ParseFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".glb", ".gltf":
		return FormatGLTF, nil
	case ".obj":
		return FormatOBJ, nil
	case ".fbx":
		return FormatFBX, nil
	default:
		return 0, &UnsupportedFormatError{Path: path, Ext: ext}
	}
}
